package types

import "fmt"

// Kind is the discriminant of the sealed Type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFundamental
	KindGenericParam
	KindClass
	KindInterface
	KindStruct
	KindEnum
	KindDelegate
	KindMapped
	KindGenericInst
)

func (k Kind) String() string {
	switch k {
	case KindFundamental:
		return "fundamental"
	case KindGenericParam:
		return "generic parameter"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindDelegate:
		return "delegate"
	case KindMapped:
		return "mapped"
	case KindGenericInst:
		return "generic instance"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a resolved metadata type. The set of implementations is closed:
// *Fundamental, *GenericParam, *Class, *Interface, *Struct, *Enum,
// *Delegate, *Mapped and *GenericInst. Switch on Kind() or use a type switch
// to recover variant fields.
type Type interface {
	Kind() Kind
	Namespace() string
	Name() string
	// FullName is the dotted metadata name; generic instances list their
	// arguments in angle brackets.
	FullName() string
	// SwiftFullName is the projected Swift name.
	SwiftFullName() string
	// ABIName is the C identifier of the type under the cache's prefix mode.
	ABIName() string
	// MangledName is the collision-free symbol identity.
	MangledName() string
	// GenericParamMangledName is the fragment used when the type appears as
	// a generic argument inside another mangled name.
	GenericParamMangledName() string
	// AppendSignature writes the WinRT type signature.
	AppendSignature(b *SignatureBuilder) error
	// CABIParam is the C parameter type used to pass the type across the ABI.
	CABIParam() (string, error)
	// CForwardDeclaration is the C forward declaration, empty when none is needed.
	CForwardDeclaration() (string, error)
	IsExperimental() bool

	sealed()
}

var (
	_ Type = (*Fundamental)(nil)
	_ Type = (*GenericParam)(nil)
	_ Type = (*Class)(nil)
	_ Type = (*Interface)(nil)
	_ Type = (*Struct)(nil)
	_ Type = (*Enum)(nil)
	_ Type = (*Delegate)(nil)
	_ Type = (*Mapped)(nil)
	_ Type = (*GenericInst)(nil)
)
