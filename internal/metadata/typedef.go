package metadata

import (
	"strings"

	"swiftwinrt/internal/winmd"
)

// TypeDef is a comparable handle to one TypeDef row.
type TypeDef struct {
	db  *winmd.Database
	row uint32
}

// Ref is a TypeDefOrRef coded index together with the database it belongs to.
type Ref struct {
	DB    *winmd.Database
	Index winmd.TypeDefOrRef
}

// IsNull reports whether the reference points nowhere.
func (r Ref) IsNull() bool { return r.DB == nil || r.Index.IsNull() }

// Spec returns the generic instance signature of a TypeSpec reference.
func (r Ref) Spec() (winmd.TypeSig, bool) {
	if r.DB == nil || r.Index.Tag != winmd.TagTypeSpec || int(r.Index.Row) >= len(r.DB.TypeSpecs) {
		return winmd.TypeSig{}, false
	}
	return r.DB.TypeSpecs[r.Index.Row].Signature, true
}

// Name returns the namespace and name a TypeDef/TypeRef index names.
func (r Ref) Name() (string, string, bool) {
	if r.DB == nil {
		return "", "", false
	}
	return r.DB.TypeRefName(r.Index)
}

// IsValid reports whether the handle points at a row.
func (t TypeDef) IsValid() bool { return t.db != nil }

// Database returns the owning container.
func (t TypeDef) Database() *winmd.Database { return t.db }

// Row returns the zero-based row number.
func (t TypeDef) Row() uint32 { return t.row }

func (t TypeDef) raw() *winmd.TypeDefRow { return &t.db.TypeDefs[t.row] }

func (t TypeDef) Name() string      { return t.raw().Name }
func (t TypeDef) Namespace() string { return t.raw().Namespace }

// FullName returns "Namespace.Name".
func (t TypeDef) FullName() string {
	if !t.IsValid() {
		return "<invalid>"
	}
	return JoinName(t.Namespace(), t.Name())
}

func (t TypeDef) String() string { return t.FullName() }

func (t TypeDef) Flags() winmd.TypeAttributes { return t.raw().Flags }

// Extends returns the base type reference.
func (t TypeDef) Extends() Ref { return Ref{DB: t.db, Index: t.raw().Extends} }

// Self returns a TypeDef coded reference to this type.
func (t TypeDef) Self() Ref {
	return Ref{DB: t.db, Index: winmd.TypeDefOrRef{Tag: winmd.TagTypeDef, Row: t.row}}
}

// Fields returns the owned fields.
func (t TypeDef) Fields() []Field {
	begin, end := t.db.FieldRange(t.row)
	out := make([]Field, 0, end-begin)
	for i := begin; i < end; i++ {
		out = append(out, Field{db: t.db, row: i})
	}
	return out
}

// Methods returns the owned methods.
func (t TypeDef) Methods() []Method {
	begin, end := t.db.MethodRange(t.row)
	out := make([]Method, 0, end-begin)
	for i := begin; i < end; i++ {
		out = append(out, Method{db: t.db, row: i})
	}
	return out
}

// InterfaceImpls returns the implemented/required interfaces in table order.
func (t TypeDef) InterfaceImpls() []InterfaceImpl {
	lo, hi := t.db.InterfaceImplsOf(t.row)
	out := make([]InterfaceImpl, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, InterfaceImpl{db: t.db, row: rowOf(i)})
	}
	return out
}

// GenericParams returns the generic parameter names in order.
func (t TypeDef) GenericParams() []string {
	lo, hi := t.db.GenericParamsOf(t.row)
	if lo == hi {
		return nil
	}
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, t.db.GenericParams[i].Name)
	}
	return out
}

// IsGeneric reports whether the type declares generic parameters.
func (t TypeDef) IsGeneric() bool {
	lo, hi := t.db.GenericParamsOf(t.row)
	return hi > lo
}

// Attributes returns the custom attributes on the type.
func (t TypeDef) Attributes() []Attribute {
	return attributesOf(t.db, winmd.HasCustomAttribute{Tag: winmd.ParentTypeDef, Row: t.row})
}

// Properties returns the properties declared on the type.
func (t TypeDef) Properties() []Property {
	lo, hi := t.db.PropertiesOf(t.row)
	out := make([]Property, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Property{db: t.db, row: rowOf(i)})
	}
	return out
}

// Events returns the events declared on the type.
func (t TypeDef) Events() []Event {
	lo, hi := t.db.EventsOf(t.row)
	out := make([]Event, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Event{db: t.db, row: rowOf(i)})
	}
	return out
}

// Field is a handle to a Field row.
type Field struct {
	db  *winmd.Database
	row uint32
}

func (f Field) raw() *winmd.FieldRow            { return &f.db.Fields[f.row] }
func (f Field) Name() string                    { return f.raw().Name }
func (f Field) Flags() winmd.FieldAttributes    { return f.raw().Flags }
func (f Field) Signature() winmd.TypeSig        { return f.raw().Signature }
func (f Field) Constant() *winmd.Constant       { return f.raw().Constant }
func (f Field) Database() *winmd.Database       { return f.db }
func (f Field) IsStatic() bool                  { return f.Flags().Has(winmd.FieldStatic) }
func (f Field) IsLiteral() bool                 { return f.Flags().Has(winmd.FieldLiteral) }

// Method is a handle to a MethodDef row.
type Method struct {
	db  *winmd.Database
	row uint32
}

func (m Method) raw() *winmd.MethodDefRow       { return &m.db.Methods[m.row] }
func (m Method) Name() string                   { return m.raw().Name }
func (m Method) Flags() winmd.MethodAttributes  { return m.raw().Flags }
func (m Method) Signature() winmd.MethodSig     { return m.raw().Signature }
func (m Method) Database() *winmd.Database      { return m.db }
func (m Method) IsValid() bool                  { return m.db != nil }
func (m Method) IsStatic() bool                 { return m.Flags().Has(winmd.MethodStatic) }
func (m Method) IsSpecialName() bool            { return m.Flags().Has(winmd.MethodSpecialName) }

// IsConstructor reports whether the method is an instance or type constructor.
func (m Method) IsConstructor() bool {
	name := m.Name()
	return m.Flags().Has(winmd.MethodRTSpecial) && (name == ".ctor" || name == ".cctor")
}

// Params returns the parameter rows, excluding the return value row.
func (m Method) Params() []winmd.ParamRow {
	begin, end := m.db.ParamRange(m.row)
	out := make([]winmd.ParamRow, 0, end-begin)
	for i := begin; i < end; i++ {
		p := m.db.Params[i]
		if p.Sequence == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Attributes returns the custom attributes on the method.
func (m Method) Attributes() []Attribute {
	return attributesOf(m.db, winmd.HasCustomAttribute{Tag: winmd.ParentMethodDef, Row: m.row})
}

// InterfaceImpl is a handle to an InterfaceImpl row.
type InterfaceImpl struct {
	db  *winmd.Database
	row uint32
}

// Interface returns the implemented interface reference.
func (i InterfaceImpl) Interface() Ref {
	return Ref{DB: i.db, Index: i.db.InterfaceImpls[i.row].Interface}
}

// Attributes returns the custom attributes on the implementation row.
func (i InterfaceImpl) Attributes() []Attribute {
	return attributesOf(i.db, winmd.HasCustomAttribute{Tag: winmd.ParentInterfaceImpl, Row: i.row})
}

// IsDefault reports whether the row carries [Default].
func (i InterfaceImpl) IsDefault() bool { return HasAttribute(i.Attributes(), AttrDefault) }

// Property is a handle to a Property row.
type Property struct {
	db  *winmd.Database
	row uint32
}

func (p Property) raw() *winmd.PropertyRow { return &p.db.Properties[p.row] }
func (p Property) Name() string            { return p.raw().Name }
func (p Property) Type() winmd.TypeSig     { return p.raw().Type }

// Getter returns the getter method, if any.
func (p Property) Getter() (Method, bool) { return accessor(p.db, p.raw().Getter) }

// Setter returns the setter method, if any.
func (p Property) Setter() (Method, bool) { return accessor(p.db, p.raw().Setter) }

// Event is a handle to an Event row.
type Event struct {
	db  *winmd.Database
	row uint32
}

func (e Event) raw() *winmd.EventRow { return &e.db.Events[e.row] }
func (e Event) Name() string         { return e.raw().Name }

// Type returns the delegate type reference.
func (e Event) Type() Ref { return Ref{DB: e.db, Index: e.raw().Type} }

func (e Event) Add() (Method, bool)    { return accessor(e.db, e.raw().Add) }
func (e Event) Remove() (Method, bool) { return accessor(e.db, e.raw().Remove) }

func accessor(db *winmd.Database, plusOne uint32) (Method, bool) {
	if plusOne == 0 || int(plusOne) > len(db.Methods) {
		return Method{}, false
	}
	return Method{db: db, row: plusOne - 1}, true
}

// JoinName joins a namespace and a type name.
func JoinName(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// SplitName splits a dotted full name at its last dot.
func SplitName(full string) (string, string) {
	i := strings.LastIndexByte(full, '.')
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}
