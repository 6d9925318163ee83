package winmd

// TypeAttributes mirrors the ECMA-335 TypeDef flag bits the generator reads.
type TypeAttributes uint32

const (
	TypeVisibilityMask TypeAttributes = 0x00000007
	TypePublic         TypeAttributes = 0x00000001
	TypeInterface      TypeAttributes = 0x00000020
	TypeAbstract       TypeAttributes = 0x00000080
	TypeSealed         TypeAttributes = 0x00000100
	TypeWindowsRuntime TypeAttributes = 0x00004000
)

// Has reports whether all bits of flag are set.
func (a TypeAttributes) Has(flag TypeAttributes) bool { return a&flag == flag }

// FieldAttributes mirrors the Field flag bits.
type FieldAttributes uint16

const (
	FieldPublic      FieldAttributes = 0x0006
	FieldStatic      FieldAttributes = 0x0010
	FieldLiteral     FieldAttributes = 0x0040
	FieldSpecialName FieldAttributes = 0x0200
	FieldRTSpecial   FieldAttributes = 0x0400
)

func (a FieldAttributes) Has(flag FieldAttributes) bool { return a&flag == flag }

// MethodAttributes mirrors the MethodDef flag bits.
type MethodAttributes uint16

const (
	MethodPublic      MethodAttributes = 0x0006
	MethodStatic      MethodAttributes = 0x0010
	MethodVirtual     MethodAttributes = 0x0040
	MethodAbstract    MethodAttributes = 0x0400
	MethodSpecialName MethodAttributes = 0x0800
	MethodRTSpecial   MethodAttributes = 0x1000
)

func (a MethodAttributes) Has(flag MethodAttributes) bool { return a&flag == flag }

// ParamAttributes mirrors the Param flag bits.
type ParamAttributes uint16

const (
	ParamIn       ParamAttributes = 0x0001
	ParamOut      ParamAttributes = 0x0002
	ParamOptional ParamAttributes = 0x0010
)

func (a ParamAttributes) Has(flag ParamAttributes) bool { return a&flag == flag }
