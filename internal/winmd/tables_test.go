package winmd

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRunsPartitionFieldsAndMethods(t *testing.T) {
	db := sampleDatabase()
	// Point, IShape, Shape, Color
	begin, end := db.FieldRange(0)
	require.Equal(t, []string{"X", "Y"}, fieldNames(db, begin, end))

	begin, end = db.MethodRange(1)
	require.Equal(t, uint32(1), end-begin)
	require.Equal(t, "get_Origin", db.Methods[begin].Name)

	begin, end = db.FieldRange(3)
	require.Equal(t, []string{"value__", "Red", "Green"}, fieldNames(db, begin, end))
}

func fieldNames(db *Database, begin, end uint32) []string {
	var out []string
	for i := begin; i < end; i++ {
		out = append(out, db.Fields[i].Name)
	}
	return out
}

func TestAttributesOfFindsInterfaceImplDefault(t *testing.T) {
	db := sampleDatabase()
	lo, hi := db.InterfaceImplsOf(2)
	require.Equal(t, 1, hi-lo)

	alo, ahi := db.AttributesOf(HasCustomAttribute{Tag: ParentInterfaceImpl, Row: uint32(lo)})
	require.Equal(t, 1, ahi-alo)
	ns, name, ok := db.TypeRefName(db.CustomAttributes[alo].Type)
	require.True(t, ok)
	require.Equal(t, MetadataNamespace, ns)
	require.Equal(t, "DefaultAttribute", name)
}

func TestPropertyAccessorsPointAtMethods(t *testing.T) {
	db := sampleDatabase()
	lo, hi := db.PropertiesOf(1)
	require.Equal(t, 1, hi-lo)
	prop := db.Properties[lo]
	require.NotZero(t, prop.Getter)
	require.Equal(t, "get_Origin", db.Methods[prop.Getter-1].Name)
	require.Zero(t, prop.Setter)
}

func TestGuidArgsLayout(t *testing.T) {
	g := uuid.MustParse("00000036-0000-0000-c000-000000000046")
	args := GuidArgs(g)
	require.Len(t, args, 11)
	require.Equal(t, uint64(0x36), args[0].Uint)
	require.Equal(t, uint64(0xc0), args[3].Uint)
	require.Equal(t, uint64(0x46), args[10].Uint)
}
