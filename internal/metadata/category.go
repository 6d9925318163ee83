package metadata

import "swiftwinrt/internal/winmd"

// Category is the WinRT kind of a TypeDef.
type Category uint8

const (
	CategoryInterface Category = iota + 1
	CategoryClass
	CategoryStruct
	CategoryEnum
	CategoryDelegate
)

func (c Category) String() string {
	switch c {
	case CategoryInterface:
		return "interface"
	case CategoryClass:
		return "class"
	case CategoryStruct:
		return "struct"
	case CategoryEnum:
		return "enum"
	case CategoryDelegate:
		return "delegate"
	}
	return "unknown"
}

// CategoryOf classifies a TypeDef from its flags and base type.
func CategoryOf(t TypeDef) Category {
	if t.Flags().Has(winmd.TypeInterface) {
		return CategoryInterface
	}
	ns, name, ok := t.Extends().Name()
	if ok && ns == winmd.SystemNamespace {
		switch name {
		case winmd.EnumName:
			return CategoryEnum
		case winmd.ValueTypeName:
			return CategoryStruct
		case winmd.MulticastDelegateName:
			return CategoryDelegate
		}
	}
	return CategoryClass
}

// IsAttributeType reports whether a class derives from System.Attribute.
func IsAttributeType(t TypeDef) bool {
	ns, name, ok := t.Extends().Name()
	return ok && ns == winmd.SystemNamespace && name == winmd.AttributeName
}

// IsApiContract reports whether a struct marks an API contract.
func IsApiContract(t TypeDef) bool {
	return HasAttribute(t.Attributes(), AttrApiContract)
}

// IsFlagsEnum reports whether an enum carries [Flags].
func IsFlagsEnum(t TypeDef) bool {
	return HasAttribute(t.Attributes(), AttrFlags)
}

// IsStaticClass reports whether a class is abstract and sealed with no instance surface.
func IsStaticClass(t TypeDef) bool {
	f := t.Flags()
	return f.Has(winmd.TypeAbstract) && f.Has(winmd.TypeSealed) && len(t.InterfaceImpls()) == 0
}
