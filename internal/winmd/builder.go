package winmd

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

// Builder assembles a Database row by row. It is used by tests and by tooling
// that produces containers from other sources.
type Builder struct {
	name     string
	types    []*TypeBuilder
	refs     []TypeRefRow
	refIndex map[[2]string]uint32
	specs    []TypeSpecRow
}

type attrEntry struct {
	ns, name string
	args     []AttrArg
}

// TypeBuilder accumulates one TypeDef and everything it owns.
type TypeBuilder struct {
	b        *Builder
	row      TypeDefRow
	index    uint32
	fields   []FieldRow
	methods  []*MethodBuilder
	impls    []*ImplBuilder
	generics []string
	attrs    []attrEntry
	props    []propEntry
	events   []eventEntry
}

// MethodBuilder accumulates one MethodDef.
type MethodBuilder struct {
	t      *TypeBuilder
	row    MethodDefRow
	local  int
	params []ParamRow
	attrs  []attrEntry
}

// ImplBuilder accumulates one InterfaceImpl.
type ImplBuilder struct {
	iface TypeDefOrRef
	attrs []attrEntry
}

type propEntry struct {
	name           string
	sig            TypeSig
	getter, setter *MethodBuilder
}

type eventEntry struct {
	name        string
	typ         TypeDefOrRef
	add, remove *MethodBuilder
}

// NewBuilder starts an empty database with the given container name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, refIndex: make(map[[2]string]uint32)}
}

// Ref returns a TypeRef index for ns.name, reusing earlier rows.
func (b *Builder) Ref(ns, name string) TypeDefOrRef {
	key := [2]string{ns, name}
	if row, ok := b.refIndex[key]; ok {
		return TypeDefOrRef{Tag: TagTypeRef, Row: row}
	}
	row := rowCount(len(b.refs))
	b.refs = append(b.refs, TypeRefRow{Namespace: ns, Name: name})
	b.refIndex[key] = row
	return TypeDefOrRef{Tag: TagTypeRef, Row: row}
}

// Spec returns a TypeSpec index for a generic instance signature.
func (b *Builder) Spec(sig TypeSig) TypeDefOrRef {
	row := rowCount(len(b.specs))
	b.specs = append(b.specs, TypeSpecRow{Signature: sig})
	return TypeDefOrRef{Tag: TagTypeSpec, Row: row}
}

// Type adds a raw TypeDef.
func (b *Builder) Type(ns, name string, flags TypeAttributes, extends TypeDefOrRef) *TypeBuilder {
	t := &TypeBuilder{
		b:     b,
		index: rowCount(len(b.types)),
		row:   TypeDefRow{Flags: flags, Name: name, Namespace: ns, Extends: extends},
	}
	b.types = append(b.types, t)
	return t
}

const runtimeClassFlags = TypePublic | TypeSealed | TypeWindowsRuntime

// Interface adds a WinRT interface carrying a [Guid].
func (b *Builder) Interface(ns, name, guid string) *TypeBuilder {
	t := b.Type(ns, name, TypePublic|TypeInterface|TypeAbstract|TypeWindowsRuntime, TypeDefOrRef{})
	t.Guid(guid)
	return t
}

// Class adds a runtime class extending System.Object.
func (b *Builder) Class(ns, name string) *TypeBuilder {
	return b.Type(ns, name, runtimeClassFlags, b.Ref(SystemNamespace, ObjectName))
}

// Struct adds a value type.
func (b *Builder) Struct(ns, name string) *TypeBuilder {
	return b.Type(ns, name, runtimeClassFlags, b.Ref(SystemNamespace, ValueTypeName))
}

// Enum adds an enum with its value__ field; flags enums are UInt32 based.
func (b *Builder) Enum(ns, name string, flags bool) *TypeBuilder {
	t := b.Type(ns, name, runtimeClassFlags, b.Ref(SystemNamespace, EnumName))
	underlying := ElemI4
	if flags {
		underlying = ElemU4
		t.Attr(SystemNamespace, FlagsAttributeName)
	}
	t.fields = append(t.fields, FieldRow{
		Flags:     FieldPublic | FieldSpecialName | FieldRTSpecial,
		Name:      "value__",
		Signature: Prim(underlying),
	})
	return t
}

// Delegate adds a delegate with an Invoke method of the given signature.
func (b *Builder) Delegate(ns, name, guid string, sig MethodSig, params ...string) *TypeBuilder {
	t := b.Type(ns, name, runtimeClassFlags, b.Ref(SystemNamespace, MulticastDelegateName))
	t.Guid(guid)
	t.Method(".ctor", MethodSig{Params: []TypeSig{Prim(ElemObject), Prim(ElemI8)}}, "object", "method").
		flags(MethodPublic | MethodSpecialName | MethodRTSpecial)
	t.Method("Invoke", sig, params...).flags(MethodPublic | MethodVirtual)
	return t
}

// ApiContract adds an API contract marker struct.
func (b *Builder) ApiContract(ns, name string) *TypeBuilder {
	t := b.Struct(ns, name)
	t.Attr(MetadataNamespace, "ApiContractAttribute")
	return t
}

// Ref returns a TypeDef index pointing at this type.
func (t *TypeBuilder) Ref() TypeDefOrRef { return TypeDefOrRef{Tag: TagTypeDef, Row: t.index} }

// SetFlags replaces the TypeDef flags.
func (t *TypeBuilder) SetFlags(flags TypeAttributes) *TypeBuilder {
	t.row.Flags = flags
	return t
}

// Field adds an instance field.
func (t *TypeBuilder) Field(name string, sig TypeSig) *TypeBuilder {
	t.fields = append(t.fields, FieldRow{Flags: FieldPublic, Name: name, Signature: sig})
	return t
}

// Value adds an enum literal.
func (t *TypeBuilder) Value(name string, v int64) *TypeBuilder {
	elem := ElemI4
	if len(t.fields) > 0 && t.fields[0].Name == "value__" {
		elem = t.fields[0].Signature.Elem
	}
	t.fields = append(t.fields, FieldRow{
		Flags:     FieldPublic | FieldStatic | FieldLiteral,
		Name:      name,
		Signature: ValueOf(t.Ref()),
		Constant:  &Constant{Elem: elem, Value: v},
	})
	return t
}

// Generic declares generic parameters in order.
func (t *TypeBuilder) Generic(names ...string) *TypeBuilder {
	t.generics = append(t.generics, names...)
	return t
}

// Method adds a method; params name the parameters in order.
func (t *TypeBuilder) Method(name string, sig MethodSig, params ...string) *MethodBuilder {
	m := &MethodBuilder{
		t:     t,
		local: len(t.methods),
		row:   MethodDefRow{Flags: MethodPublic | MethodVirtual | MethodAbstract, Name: name, Signature: sig},
	}
	for i, p := range params {
		m.params = append(m.params, ParamRow{Flags: ParamIn, Sequence: uint16(i + 1), Name: p})
	}
	t.methods = append(t.methods, m)
	return m
}

// Implements adds an InterfaceImpl row.
func (t *TypeBuilder) Implements(iface TypeDefOrRef) *ImplBuilder {
	impl := &ImplBuilder{iface: iface}
	t.impls = append(t.impls, impl)
	return impl
}

// Property adds a property backed by accessor methods; setter may be nil.
func (t *TypeBuilder) Property(name string, sig TypeSig, getter, setter *MethodBuilder) *TypeBuilder {
	t.props = append(t.props, propEntry{name: name, sig: sig, getter: getter, setter: setter})
	return t
}

// Event adds an event backed by add/remove methods.
func (t *TypeBuilder) Event(name string, typ TypeDefOrRef, add, remove *MethodBuilder) *TypeBuilder {
	t.events = append(t.events, eventEntry{name: name, typ: typ, add: add, remove: remove})
	return t
}

// Attr attaches a custom attribute.
func (t *TypeBuilder) Attr(ns, name string, args ...AttrArg) *TypeBuilder {
	t.attrs = append(t.attrs, attrEntry{ns: ns, name: name, args: args})
	return t
}

// Guid attaches a GuidAttribute parsed from its string form.
func (t *TypeBuilder) Guid(s string) *TypeBuilder {
	return t.Attr(MetadataNamespace, "GuidAttribute", GuidArgs(uuid.MustParse(s))...)
}

// Contract attaches ContractVersionAttribute(contract, version).
func (t *TypeBuilder) Contract(contract string, version uint32) *TypeBuilder {
	return t.Attr(MetadataNamespace, "ContractVersionAttribute", TypeArg(contract), UintArg(uint64(version)))
}

// PreviousContract attaches PreviousContractVersionAttribute.
func (t *TypeBuilder) PreviousContract(from string, low, high uint32, to string) *TypeBuilder {
	return t.Attr(MetadataNamespace, "PreviousContractVersionAttribute",
		StringArg(from), UintArg(uint64(low)), UintArg(uint64(high)), StringArg(to))
}

// ExclusiveTo attaches ExclusiveToAttribute naming the owning class.
func (t *TypeBuilder) ExclusiveTo(class string) *TypeBuilder {
	return t.Attr(MetadataNamespace, "ExclusiveToAttribute", TypeArg(class))
}

// Experimental attaches ExperimentalAttribute.
func (t *TypeBuilder) Experimental() *TypeBuilder {
	return t.Attr(MetadataNamespace, "ExperimentalAttribute")
}

// Default marks the implemented interface as the class default.
func (i *ImplBuilder) Default() *ImplBuilder {
	return i.Attr(MetadataNamespace, "DefaultAttribute")
}

// Attr attaches a custom attribute to the InterfaceImpl.
func (i *ImplBuilder) Attr(ns, name string, args ...AttrArg) *ImplBuilder {
	i.attrs = append(i.attrs, attrEntry{ns: ns, name: name, args: args})
	return i
}

func (m *MethodBuilder) flags(f MethodAttributes) *MethodBuilder {
	m.row.Flags = f
	return m
}

// SpecialName marks accessor methods (get_X, put_X, add_X, remove_X).
func (m *MethodBuilder) SpecialName() *MethodBuilder {
	m.row.Flags |= MethodSpecialName
	return m
}

// Out marks parameter i (zero-based) as an out parameter.
func (m *MethodBuilder) Out(i int) *MethodBuilder {
	m.params[i].Flags = ParamOut
	return m
}

// Attr attaches a custom attribute to the method.
func (m *MethodBuilder) Attr(ns, name string, args ...AttrArg) *MethodBuilder {
	m.attrs = append(m.attrs, attrEntry{ns: ns, name: name, args: args})
	return m
}

// Build lays out the tables. The builder can keep being used afterwards.
func (b *Builder) Build() *Database {
	db := &Database{
		Magic:     Magic,
		Schema:    SchemaVersion,
		Name:      b.name,
		TypeRefs:  slices.Clone(b.refs),
		TypeSpecs: slices.Clone(b.specs),
	}
	methodBase := make([]uint32, len(b.types))
	var attrs []CustomAttributeRow
	addAttrs := func(parent HasCustomAttribute, entries []attrEntry) {
		for _, a := range entries {
			attrs = append(attrs, CustomAttributeRow{Parent: parent, Type: b.Ref(a.ns, a.name), Args: a.args})
		}
	}
	for i, t := range b.types {
		row := t.row
		row.FieldList = rowCount(len(db.Fields))
		row.MethodList = rowCount(len(db.Methods))
		methodBase[i] = row.MethodList
		db.Fields = append(db.Fields, t.fields...)
		for _, m := range t.methods {
			mrow := m.row
			mrow.ParamList = rowCount(len(db.Params))
			methodRow := rowCount(len(db.Methods))
			db.Methods = append(db.Methods, mrow)
			db.Params = append(db.Params, m.params...)
			addAttrs(HasCustomAttribute{Tag: ParentMethodDef, Row: methodRow}, m.attrs)
		}
		db.TypeDefs = append(db.TypeDefs, row)
		addAttrs(HasCustomAttribute{Tag: ParentTypeDef, Row: t.index}, t.attrs)
		for _, impl := range t.impls {
			implRow := rowCount(len(db.InterfaceImpls))
			db.InterfaceImpls = append(db.InterfaceImpls, InterfaceImplRow{Class: t.index, Interface: impl.iface})
			addAttrs(HasCustomAttribute{Tag: ParentInterfaceImpl, Row: implRow}, impl.attrs)
		}
		for n, name := range t.generics {
			db.GenericParams = append(db.GenericParams, GenericParamRow{Number: uint16(n), Owner: t.index, Name: name})
		}
	}
	accessor := func(m *MethodBuilder) uint32 {
		if m == nil {
			return 0
		}
		return methodBase[m.t.index] + rowCount(m.local) + 1
	}
	for _, t := range b.types {
		for _, p := range t.props {
			db.Properties = append(db.Properties, PropertyRow{
				Owner: t.index, Name: p.name, Type: p.sig,
				Getter: accessor(p.getter), Setter: accessor(p.setter),
			})
		}
		for _, e := range t.events {
			db.Events = append(db.Events, EventRow{
				Owner: t.index, Name: e.name, Type: e.typ,
				Add: accessor(e.add), Remove: accessor(e.remove),
			})
		}
	}
	// attribute type refs may have grown the ref table
	db.TypeRefs = slices.Clone(b.refs)
	slices.SortStableFunc(attrs, func(a, c CustomAttributeRow) int {
		if a.Parent.Row != c.Parent.Row {
			return cmp.Compare(a.Parent.Row, c.Parent.Row)
		}
		return cmp.Compare(a.Parent.Tag, c.Parent.Tag)
	})
	db.CustomAttributes = attrs
	return db
}

// StringArg builds a string attribute argument.
func StringArg(s string) AttrArg { return AttrArg{Kind: ArgString, Str: s} }

// UintArg builds an unsigned attribute argument.
func UintArg(v uint64) AttrArg { return AttrArg{Kind: ArgUint, Uint: v} }

// IntArg builds a signed attribute argument.
func IntArg(v int64) AttrArg { return AttrArg{Kind: ArgInt, Int: v} }

// TypeArg builds a System.Type attribute argument from a dotted full name.
func TypeArg(fullName string) AttrArg { return AttrArg{Kind: ArgType, Str: fullName} }

// EnumArg builds an enum attribute argument.
func EnumArg(enumType string, v int64) AttrArg {
	return AttrArg{Kind: ArgEnum, EnumType: enumType, Int: v}
}

// GuidArgs splits a GUID into the eleven GuidAttribute constructor arguments.
func GuidArgs(g uuid.UUID) []AttrArg {
	args := make([]AttrArg, 0, 11)
	args = append(args,
		UintArg(uint64(g[0])<<24|uint64(g[1])<<16|uint64(g[2])<<8|uint64(g[3])),
		UintArg(uint64(g[4])<<8|uint64(g[5])),
		UintArg(uint64(g[6])<<8|uint64(g[7])),
	)
	for _, b := range g[8:] {
		args = append(args, UintArg(uint64(b)))
	}
	return args
}
