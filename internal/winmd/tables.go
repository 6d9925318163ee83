package winmd

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// TypeDefRow describes a type defined in this database.
// Owned fields and methods are the rows from FieldList/MethodList up to the
// next TypeDef's lists (ECMA-335 run encoding).
type TypeDefRow struct {
	Flags      TypeAttributes
	Name       string
	Namespace  string
	Extends    TypeDefOrRef
	FieldList  uint32
	MethodList uint32
}

// TypeRefRow names a type defined in some database (possibly this one).
type TypeRefRow struct {
	Scope     string
	Name      string
	Namespace string
}

// TypeSpecRow holds a generic instance signature referenced by coded indexes.
type TypeSpecRow struct {
	Signature TypeSig
}

// Constant is an inline literal value for enum fields.
type Constant struct {
	Elem  ElementType
	Value int64
}

type FieldRow struct {
	Flags     FieldAttributes
	Name      string
	Signature TypeSig
	Constant  *Constant
}

type MethodDefRow struct {
	Flags     MethodAttributes
	Name      string
	Signature MethodSig
	ParamList uint32
}

// ParamRow describes one parameter; Sequence 0 is the return value.
type ParamRow struct {
	Flags    ParamAttributes
	Sequence uint16
	Name     string
}

// InterfaceImplRow is sorted by Class.
type InterfaceImplRow struct {
	Class     uint32
	Interface TypeDefOrRef
}

// GenericParamRow is sorted by Owner, then Number.
type GenericParamRow struct {
	Number uint16
	Owner  uint32
	Name   string
}

// ArgKind tags a decoded custom attribute argument.
type ArgKind uint8

const (
	ArgString ArgKind = iota + 1
	ArgInt
	ArgUint
	ArgBool
	ArgType
	ArgEnum
)

func (k ArgKind) String() string {
	switch k {
	case ArgString:
		return "string"
	case ArgInt:
		return "int"
	case ArgUint:
		return "uint"
	case ArgBool:
		return "bool"
	case ArgType:
		return "type"
	case ArgEnum:
		return "enum"
	}
	return "unknown"
}

// AttrArg is one fixed or named attribute argument. Type arguments carry the
// dotted full name in Str; enum arguments carry the enum type in EnumType.
type AttrArg struct {
	Kind     ArgKind
	Name     string
	Str      string
	Int      int64
	Uint     uint64
	Bool     bool
	EnumType string
}

// CustomAttributeRow is sorted by Parent. Type names the attribute class.
type CustomAttributeRow struct {
	Parent HasCustomAttribute
	Type   TypeDefOrRef
	Args   []AttrArg
}

// PropertyRow is sorted by Owner. Getter/Setter are method rows plus one; zero means absent.
type PropertyRow struct {
	Owner  uint32
	Name   string
	Type   TypeSig
	Getter uint32
	Setter uint32
}

// EventRow is sorted by Owner. Add/Remove are method rows plus one.
type EventRow struct {
	Owner  uint32
	Name   string
	Type   TypeDefOrRef
	Add    uint32
	Remove uint32
}

// Database is one metadata container.
type Database struct {
	Magic            string
	Schema           uint16
	Name             string
	TypeDefs         []TypeDefRow
	TypeRefs         []TypeRefRow
	TypeSpecs        []TypeSpecRow
	Fields           []FieldRow
	Methods          []MethodDefRow
	Params           []ParamRow
	InterfaceImpls   []InterfaceImplRow
	GenericParams    []GenericParamRow
	CustomAttributes []CustomAttributeRow
	Properties       []PropertyRow
	Events           []EventRow

	path   string
	digest Digest
}

// Digest is the SHA-256 of the container bytes.
type Digest [32]byte

// Path returns the file the database was opened from, if any.
func (db *Database) Path() string { return db.path }

// Digest returns the content hash of the container.
func (db *Database) Digest() Digest { return db.digest }

func (db *Database) String() string {
	if db.path != "" {
		return db.path
	}
	return db.Name
}

func rowCount(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("table size overflow: %w", err))
	}
	return v
}

// FieldRange returns the [begin, end) Field rows owned by TypeDef row.
func (db *Database) FieldRange(row uint32) (uint32, uint32) {
	begin := db.TypeDefs[row].FieldList
	end := rowCount(len(db.Fields))
	if int(row)+1 < len(db.TypeDefs) {
		end = db.TypeDefs[row+1].FieldList
	}
	return begin, end
}

// MethodRange returns the [begin, end) MethodDef rows owned by TypeDef row.
func (db *Database) MethodRange(row uint32) (uint32, uint32) {
	begin := db.TypeDefs[row].MethodList
	end := rowCount(len(db.Methods))
	if int(row)+1 < len(db.TypeDefs) {
		end = db.TypeDefs[row+1].MethodList
	}
	return begin, end
}

// ParamRange returns the [begin, end) Param rows owned by MethodDef row.
func (db *Database) ParamRange(row uint32) (uint32, uint32) {
	begin := db.Methods[row].ParamList
	end := rowCount(len(db.Params))
	if int(row)+1 < len(db.Methods) {
		end = db.Methods[row+1].ParamList
	}
	return begin, end
}

// equalRange finds the run of rows whose key equals target in a sorted table.
func equalRange(n int, key func(int) uint32, target uint32) (int, int) {
	lo := sort.Search(n, func(i int) bool { return key(i) >= target })
	hi := sort.Search(n, func(i int) bool { return key(i) > target })
	return lo, hi
}

// InterfaceImplsOf returns the InterfaceImpl rows of TypeDef row.
func (db *Database) InterfaceImplsOf(row uint32) (int, int) {
	return equalRange(len(db.InterfaceImpls), func(i int) uint32 { return db.InterfaceImpls[i].Class }, row)
}

// GenericParamsOf returns the GenericParam rows of TypeDef row.
func (db *Database) GenericParamsOf(row uint32) (int, int) {
	return equalRange(len(db.GenericParams), func(i int) uint32 { return db.GenericParams[i].Owner }, row)
}

// PropertiesOf returns the Property rows of TypeDef row.
func (db *Database) PropertiesOf(row uint32) (int, int) {
	return equalRange(len(db.Properties), func(i int) uint32 { return db.Properties[i].Owner }, row)
}

// EventsOf returns the Event rows of TypeDef row.
func (db *Database) EventsOf(row uint32) (int, int) {
	return equalRange(len(db.Events), func(i int) uint32 { return db.Events[i].Owner }, row)
}

// AttributesOf returns the CustomAttribute rows attached to parent.
func (db *Database) AttributesOf(parent HasCustomAttribute) (int, int) {
	n := len(db.CustomAttributes)
	lo := sort.Search(n, func(i int) bool { return !db.CustomAttributes[i].Parent.less(parent) })
	hi := sort.Search(n, func(i int) bool { return parent.less(db.CustomAttributes[i].Parent) })
	return lo, hi
}

// TypeRefName returns namespace and name of a TypeDef or TypeRef index.
// TypeSpec indexes have no name.
func (db *Database) TypeRefName(c TypeDefOrRef) (string, string, bool) {
	switch c.Tag {
	case TagTypeDef:
		if int(c.Row) >= len(db.TypeDefs) {
			return "", "", false
		}
		row := db.TypeDefs[c.Row]
		return row.Namespace, row.Name, true
	case TagTypeRef:
		if int(c.Row) >= len(db.TypeRefs) {
			return "", "", false
		}
		row := db.TypeRefs[c.Row]
		return row.Namespace, row.Name, true
	}
	return "", "", false
}
