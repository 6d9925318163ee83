package types

import "swiftwinrt/internal/winmd"

// FundamentalKind enumerates the built-in WinRT value and reference types.
type FundamentalKind uint8

const (
	Boolean FundamentalKind = iota
	Char16
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Single
	Double
	String
	Object
	Guid
	fundamentalCount
)

type fundamentalInfo struct {
	name      string // metadata name
	swift     string
	abi       string // C type
	param     string // generic argument mangling
	sig       string
	blittable bool
}

var fundamentals = [fundamentalCount]fundamentalInfo{
	Boolean: {"Boolean", "Bool", "boolean", "boolean", "b1", false},
	Char16:  {"Char16", "Character", "WCHAR", "WCHAR", "c2", false},
	Int8:    {"Int8", "Int8", "INT8", "INT8", "i1", true},
	UInt8:   {"UInt8", "UInt8", "UINT8", "UINT8", "u1", true},
	Int16:   {"Int16", "Int16", "INT16", "INT16", "i2", true},
	UInt16:  {"UInt16", "UInt16", "UINT16", "UINT16", "u2", true},
	Int32:   {"Int32", "Int32", "INT32", "int", "i4", true},
	UInt32:  {"UInt32", "UInt32", "UINT32", "UINT32", "u4", true},
	Int64:   {"Int64", "Int64", "INT64", "INT64", "i8", true},
	UInt64:  {"UInt64", "UInt64", "UINT64", "UINT64", "u8", true},
	Single:  {"Single", "Float", "FLOAT", "float", "f4", true},
	Double:  {"Double", "Double", "DOUBLE", "double", "f8", true},
	String:  {"String", "String", "HSTRING", "HSTRING", "string", false},
	Object:  {"Object", "Any", "IInspectable", "IInspectable", "cinterface(IInspectable)", false},
	Guid:    {"Guid", "Foundation.UUID", "GUID", "GUID", "g16", true},
}

var elementFundamentals = map[winmd.ElementType]FundamentalKind{
	winmd.ElemBoolean: Boolean,
	winmd.ElemChar:    Char16,
	winmd.ElemI1:      Int8,
	winmd.ElemU1:      UInt8,
	winmd.ElemI2:      Int16,
	winmd.ElemU2:      UInt16,
	winmd.ElemI4:      Int32,
	winmd.ElemU4:      UInt32,
	winmd.ElemI8:      Int64,
	winmd.ElemU8:      UInt64,
	winmd.ElemR4:      Single,
	winmd.ElemR8:      Double,
	winmd.ElemString:  String,
	winmd.ElemObject:  Object,
}

// Fundamental is a built-in type. Values are shared singletons.
type Fundamental struct {
	kind FundamentalKind
}

var fundamentalTypes = func() [fundamentalCount]*Fundamental {
	var out [fundamentalCount]*Fundamental
	for i := range out {
		out[i] = &Fundamental{kind: FundamentalKind(i)}
	}
	return out
}()

// FundamentalOf returns the singleton for k.
func FundamentalOf(k FundamentalKind) *Fundamental { return fundamentalTypes[k] }

// FundamentalForElement maps a primitive signature element to its type.
func FundamentalForElement(e winmd.ElementType) (*Fundamental, bool) {
	k, ok := elementFundamentals[e]
	if !ok {
		return nil, false
	}
	return fundamentalTypes[k], true
}

func (f *Fundamental) info() fundamentalInfo { return fundamentals[f.kind] }

// FundamentalKind returns which built-in type f is.
func (f *Fundamental) FundamentalKind() FundamentalKind { return f.kind }

func (f *Fundamental) Kind() Kind        { return KindFundamental }
func (f *Fundamental) Namespace() string { return "" }
func (f *Fundamental) Name() string      { return f.info().name }
func (f *Fundamental) FullName() string  { return f.info().name }

func (f *Fundamental) SwiftFullName() string           { return f.info().swift }
func (f *Fundamental) ABIName() string                 { return f.info().abi }
func (f *Fundamental) MangledName() string             { return f.info().abi }
func (f *Fundamental) GenericParamMangledName() string { return f.info().param }
func (f *Fundamental) IsExperimental() bool            { return false }
func (f *Fundamental) sealed()                         {}

func (f *Fundamental) AppendSignature(b *SignatureBuilder) error {
	b.WriteString(f.info().sig)
	return nil
}

func (f *Fundamental) CABIParam() (string, error) {
	if f.kind == Object {
		return "IInspectable*", nil
	}
	return f.info().abi, nil
}

func (f *Fundamental) CForwardDeclaration() (string, error) { return "", nil }
