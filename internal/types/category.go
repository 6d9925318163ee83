package types

// ParamCategory classifies how a field, parameter or return value crosses
// the ABI.
type ParamCategory uint8

const (
	ParamInvalid ParamCategory = iota
	ParamArray
	ParamString
	ParamObject
	ParamCharacter
	ParamBoolean
	ParamFundamental
	ParamStruct
	ParamEnum
	ParamGeneric
	ParamGenericTypeIndex
	ParamGuid
)

func (c ParamCategory) String() string {
	switch c {
	case ParamArray:
		return "array"
	case ParamString:
		return "string"
	case ParamObject:
		return "object"
	case ParamCharacter:
		return "character"
	case ParamBoolean:
		return "boolean"
	case ParamFundamental:
		return "fundamental"
	case ParamStruct:
		return "struct"
	case ParamEnum:
		return "enum"
	case ParamGeneric:
		return "generic"
	case ParamGenericTypeIndex:
		return "generic type index"
	case ParamGuid:
		return "guid"
	}
	return "invalid"
}

// CategoryOf classifies t; array takes precedence over the element type.
func CategoryOf(t Type, array bool) ParamCategory {
	if array {
		return ParamArray
	}
	switch v := t.(type) {
	case *Fundamental:
		switch v.kind {
		case String:
			return ParamString
		case Object:
			return ParamObject
		case Char16:
			return ParamCharacter
		case Boolean:
			return ParamBoolean
		case Guid:
			return ParamGuid
		}
		return ParamFundamental
	case *Mapped:
		return v.info().category
	case *Struct:
		return ParamStruct
	case *Enum:
		return ParamEnum
	case *Class, *Interface, *Delegate:
		return ParamObject
	case *GenericInst:
		return ParamGeneric
	case *GenericParam:
		return ParamGenericTypeIndex
	}
	return ParamInvalid
}
