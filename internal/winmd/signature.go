package winmd

import (
	"fmt"
	"strconv"
	"strings"
)

// ElementType is the signature element tag (ECMA-335 II.23.1.16).
type ElementType uint8

const (
	ElemEnd         ElementType = 0x00
	ElemVoid        ElementType = 0x01
	ElemBoolean     ElementType = 0x02
	ElemChar        ElementType = 0x03
	ElemI1          ElementType = 0x04
	ElemU1          ElementType = 0x05
	ElemI2          ElementType = 0x06
	ElemU2          ElementType = 0x07
	ElemI4          ElementType = 0x08
	ElemU4          ElementType = 0x09
	ElemI8          ElementType = 0x0a
	ElemU8          ElementType = 0x0b
	ElemR4          ElementType = 0x0c
	ElemR8          ElementType = 0x0d
	ElemString      ElementType = 0x0e
	ElemValueType   ElementType = 0x11
	ElemClass       ElementType = 0x12
	ElemVar         ElementType = 0x13
	ElemGenericInst ElementType = 0x15
	ElemObject      ElementType = 0x1c
)

var elementNames = map[ElementType]string{
	ElemVoid:    "void",
	ElemBoolean: "Boolean",
	ElemChar:    "Char16",
	ElemI1:      "Int8",
	ElemU1:      "UInt8",
	ElemI2:      "Int16",
	ElemU2:      "UInt16",
	ElemI4:      "Int32",
	ElemU4:      "UInt32",
	ElemI8:      "Int64",
	ElemU8:      "UInt64",
	ElemR4:      "Single",
	ElemR8:      "Double",
	ElemString:  "String",
	ElemObject:  "Object",
}

func (e ElementType) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	switch e {
	case ElemValueType:
		return "valuetype"
	case ElemClass:
		return "class"
	case ElemVar:
		return "var"
	case ElemGenericInst:
		return "genericinst"
	}
	return "elem(0x" + strconv.FormatUint(uint64(e), 16) + ")"
}

// IsPrimitive reports whether the element needs no type lookup.
func (e ElementType) IsPrimitive() bool {
	return (e >= ElemBoolean && e <= ElemString) || e == ElemObject
}

// TypeSig is a decoded type signature.
//
// Type holds the referenced type for ValueType, Class and GenericInst (where it
// names the generic definition). GenericParam is the VAR index.
type TypeSig struct {
	Elem         ElementType
	SZArray      bool
	ByRef        bool
	Type         TypeDefOrRef
	GenericArgs  []TypeSig
	GenericParam uint32
}

// MethodSig is a decoded method signature. A nil Return means void.
type MethodSig struct {
	Return *TypeSig
	Params []TypeSig
}

// Validate checks the structural shape of a signature.
func (s TypeSig) Validate() error {
	switch s.Elem {
	case ElemValueType, ElemClass:
		if s.Type.IsNull() {
			return fmt.Errorf("%s signature without type", s.Elem)
		}
	case ElemGenericInst:
		if s.Type.IsNull() {
			return fmt.Errorf("generic instance without definition")
		}
		if len(s.GenericArgs) == 0 {
			return fmt.Errorf("generic instance without arguments")
		}
		for i := range s.GenericArgs {
			if err := s.GenericArgs[i].Validate(); err != nil {
				return fmt.Errorf("generic argument %d: %w", i, err)
			}
		}
	case ElemVar:
	default:
		if !s.Elem.IsPrimitive() {
			return fmt.Errorf("unsupported element type %s", s.Elem)
		}
	}
	return nil
}

// String renders a debugging form; it is not a WinRT signature.
func (s TypeSig) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s TypeSig) write(b *strings.Builder) {
	if s.ByRef {
		b.WriteString("ref ")
	}
	switch s.Elem {
	case ElemValueType, ElemClass:
		b.WriteString(s.Elem.String())
		b.WriteByte(' ')
		b.WriteString(s.Type.String())
	case ElemGenericInst:
		b.WriteString(s.Type.String())
		b.WriteByte('<')
		for i, arg := range s.GenericArgs {
			if i > 0 {
				b.WriteString(", ")
			}
			arg.write(b)
		}
		b.WriteByte('>')
	case ElemVar:
		b.WriteString("!")
		b.WriteString(strconv.FormatUint(uint64(s.GenericParam), 10))
	default:
		b.WriteString(s.Elem.String())
	}
	if s.SZArray {
		b.WriteString("[]")
	}
}

// Prim builds a primitive signature.
func Prim(e ElementType) TypeSig { return TypeSig{Elem: e} }

// ValueOf builds a value-type signature.
func ValueOf(t TypeDefOrRef) TypeSig { return TypeSig{Elem: ElemValueType, Type: t} }

// ClassOf builds a reference-type signature.
func ClassOf(t TypeDefOrRef) TypeSig { return TypeSig{Elem: ElemClass, Type: t} }

// GenericOf builds a generic instance signature.
func GenericOf(def TypeDefOrRef, args ...TypeSig) TypeSig {
	return TypeSig{Elem: ElemGenericInst, Type: def, GenericArgs: args}
}

// Var builds a generic parameter reference.
func Var(index uint32) TypeSig { return TypeSig{Elem: ElemVar, GenericParam: index} }

// Array returns the signature as a single-dimension array.
func (s TypeSig) Array() TypeSig {
	s.SZArray = true
	return s
}

// Ref returns the signature marked by-reference.
func (s TypeSig) Ref() TypeSig {
	s.ByRef = true
	return s
}
