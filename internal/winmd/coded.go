package winmd

import "fmt"

// TypeDefOrRefTag selects the table a TypeDefOrRef index points into.
type TypeDefOrRefTag uint8

const (
	// TagNone marks a null coded index.
	TagNone TypeDefOrRefTag = iota
	TagTypeDef
	TagTypeRef
	TagTypeSpec
)

func (t TypeDefOrRefTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagTypeDef:
		return "typedef"
	case TagTypeRef:
		return "typeref"
	case TagTypeSpec:
		return "typespec"
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// TypeDefOrRef is the coded index used by Extends, InterfaceImpl and signatures.
// Row is zero-based within the selected table.
type TypeDefOrRef struct {
	Tag TypeDefOrRefTag
	Row uint32
}

// IsNull reports whether the index points nowhere.
func (c TypeDefOrRef) IsNull() bool { return c.Tag == TagNone }

func (c TypeDefOrRef) String() string {
	if c.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%s#%d", c.Tag, c.Row)
}

// ParentTag selects the table a custom attribute is attached to.
type ParentTag uint8

const (
	ParentNone ParentTag = iota
	ParentTypeDef
	ParentField
	ParentMethodDef
	ParentParam
	ParentInterfaceImpl
	ParentProperty
	ParentEvent
)

// HasCustomAttribute is the coded index of a custom attribute owner.
type HasCustomAttribute struct {
	Tag ParentTag
	Row uint32
}

// less orders owners the way the CustomAttribute table is sorted.
func (h HasCustomAttribute) less(o HasCustomAttribute) bool {
	if h.Row != o.Row {
		return h.Row < o.Row
	}
	return h.Tag < o.Tag
}
