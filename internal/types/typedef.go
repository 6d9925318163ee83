package types

import (
	"strings"

	"github.com/google/uuid"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
)

// typeDefBase carries what every TypeDef-backed variant shares.
type typeDefBase struct {
	def    metadata.TypeDef
	prefix settings.PrefixMode
}

// Def returns the metadata definition.
func (b *typeDefBase) Def() metadata.TypeDef { return b.def }

func (b *typeDefBase) Namespace() string { return b.def.Namespace() }
func (b *typeDefBase) Name() string      { return b.def.Name() }
func (b *typeDefBase) FullName() string  { return b.def.FullName() }

func (b *typeDefBase) SwiftFullName() string {
	return SwiftNamespace(b.def.Namespace()) + "." + SwiftName(b.def.Name())
}

func (b *typeDefBase) ABIName() string {
	return abiTypeName(b.def.Namespace(), b.def.Name(), b.prefix)
}

func (b *typeDefBase) MangledName() string {
	return mangledTypeName(b.def.Namespace(), b.def.Name())
}

func (b *typeDefBase) GenericParamMangledName() string {
	return paramMangledName(b.def.Namespace(), b.def.Name())
}

func (b *typeDefBase) IsExperimental() bool { return metadata.IsExperimental(b.def) }

func (b *typeDefBase) sealed() {}

// TypeDefOf returns the metadata definition behind t, if any.
func TypeDefOf(t Type) (metadata.TypeDef, bool) {
	switch v := t.(type) {
	case *Class:
		return v.def, true
	case *Interface:
		return v.def, true
	case *Struct:
		return v.def, true
	case *Enum:
		return v.def, true
	case *Delegate:
		return v.def, true
	}
	return metadata.TypeDef{}, false
}

// GenericParam is an unbound generic parameter of a definition.
type GenericParam struct {
	Index uint32
	Param string
}

func (g *GenericParam) Kind() Kind            { return KindGenericParam }
func (g *GenericParam) Namespace() string     { return "" }
func (g *GenericParam) Name() string          { return g.Param }
func (g *GenericParam) FullName() string      { return g.Param }
func (g *GenericParam) SwiftFullName() string { return g.Param }
func (g *GenericParam) ABIName() string       { return g.Param }
func (g *GenericParam) IsExperimental() bool  { return false }
func (g *GenericParam) sealed()               {}

func (g *GenericParam) MangledName() string {
	invariant("mangled name requested for generic parameter %s", g.Param)
	return ""
}

func (g *GenericParam) GenericParamMangledName() string {
	invariant("generic parameter mangling requested for unbound parameter %s", g.Param)
	return ""
}

func (g *GenericParam) AppendSignature(*SignatureBuilder) error {
	invariant("signature requested for unbound generic parameter %s", g.Param)
	return nil
}

func (g *GenericParam) CABIParam() (string, error) {
	invariant("ABI parameter requested for unbound generic parameter %s", g.Param)
	return "", nil
}

func (g *GenericParam) CForwardDeclaration() (string, error) { return "", nil }

// Struct is a WinRT value type.
type Struct struct {
	typeDefBase
	Fields []Field
}

func (s *Struct) Kind() Kind { return KindStruct }

func (s *Struct) AppendSignature(b *SignatureBuilder) error {
	b.WriteString("struct(")
	b.WriteString(s.FullName())
	for _, f := range s.Fields {
		b.AppendByte(';')
		if err := f.Type.AppendSignature(b); err != nil {
			return err
		}
	}
	b.AppendByte(')')
	return nil
}

func (s *Struct) CABIParam() (string, error) { return "struct " + s.ABIName(), nil }

func (s *Struct) CForwardDeclaration() (string, error) {
	return "struct " + s.ABIName() + ";\n", nil
}

// Enum is a WinRT enumeration backed by Int32, or UInt32 for [Flags] enums.
type Enum struct {
	typeDefBase
	Flags  bool
	Values []EnumValue
}

func (e *Enum) Kind() Kind { return KindEnum }

func (e *Enum) AppendSignature(b *SignatureBuilder) error {
	b.WriteString("enum(")
	b.WriteString(e.FullName())
	if e.Flags {
		b.WriteString(";u4)")
	} else {
		b.WriteString(";i4)")
	}
	return nil
}

func (e *Enum) CABIParam() (string, error)           { return "enum " + e.ABIName(), nil }
func (e *Enum) CForwardDeclaration() (string, error) { return "", nil }

// Interface is a WinRT interface, possibly a generic definition.
type Interface struct {
	typeDefBase
	Guid          uuid.UUID
	GenericParams []*GenericParam
	Methods       []*Method
	// Requires lists required interfaces in declaration order.
	Requires []Type
	// ExclusiveTo names the owning class for exclusive interfaces.
	ExclusiveTo string
}

func (i *Interface) Kind() Kind { return KindInterface }

// IsGeneric reports whether i is an open generic definition.
func (i *Interface) IsGeneric() bool { return len(i.GenericParams) > 0 }

func (i *Interface) AppendSignature(b *SignatureBuilder) error {
	if i.IsGeneric() {
		invariant("signature requested for open generic interface %s", i.FullName())
	}
	b.WriteGuid(i.Guid)
	return nil
}

func (i *Interface) CABIParam() (string, error) { return i.ABIName() + "*", nil }

func (i *Interface) CForwardDeclaration() (string, error) { return fwdInterface(i.ABIName()), nil }

// Delegate is a WinRT delegate, possibly a generic definition.
type Delegate struct {
	typeDefBase
	Guid          uuid.UUID
	GenericParams []*GenericParam
	Invoke        *Method
}

func (d *Delegate) Kind() Kind { return KindDelegate }

// IsGeneric reports whether d is an open generic definition.
func (d *Delegate) IsGeneric() bool { return len(d.GenericParams) > 0 }

func (d *Delegate) AppendSignature(b *SignatureBuilder) error {
	if d.IsGeneric() {
		invariant("signature requested for open generic delegate %s", d.FullName())
	}
	b.WriteString("delegate(")
	b.WriteGuid(d.Guid)
	b.AppendByte(')')
	return nil
}

func (d *Delegate) CABIParam() (string, error) { return d.ABIName() + "*", nil }

func (d *Delegate) CForwardDeclaration() (string, error) { return fwdInterface(d.ABIName()), nil }

// Class is a runtime class.
type Class struct {
	typeDefBase
	// Default is the default interface, nil for static classes.
	Default    Type
	Base       *Class
	Interfaces []Type
	Statics    []Type
	Factories  []Type
	Composable []Type
	// Activatable reports a parameterless [Activatable] constructor.
	Activatable bool
	Sealed      bool
}

func (c *Class) Kind() Kind { return KindClass }

func (c *Class) noDefault(op string) error {
	return &InvalidTypeError{Type: c.FullName(), Op: op, Reason: "class has no default interface"}
}

func (c *Class) AppendSignature(b *SignatureBuilder) error {
	if c.Default == nil {
		return c.noDefault("signature")
	}
	b.WriteString("rc(")
	b.WriteString(c.FullName())
	b.AppendByte(';')
	if err := c.Default.AppendSignature(b); err != nil {
		return err
	}
	b.AppendByte(')')
	return nil
}

func (c *Class) CABIParam() (string, error) {
	if c.Default == nil {
		return "", c.noDefault("ABI parameter")
	}
	return c.Default.CABIParam()
}

func (c *Class) CForwardDeclaration() (string, error) {
	if c.Default == nil {
		return "", c.noDefault("forward declaration")
	}
	return c.Default.CForwardDeclaration()
}

// IsStatic reports whether the class only has static members.
func (c *Class) IsStatic() bool { return c.Default == nil }

// swiftTypeList renders generic arguments for Swift names.
func swiftTypeList(args []Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.SwiftFullName()
	}
	return strings.Join(parts, ", ")
}
