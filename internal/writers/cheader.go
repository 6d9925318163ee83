package writers

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"swiftwinrt/internal/driver"
	"swiftwinrt/internal/types"
)

// BaseHeader is the support header every generated header includes.
const BaseHeader = "WinRTBase.h"

type vtableBase uint8

const (
	baseIUnknown vtableBase = iota
	baseIInspectable
)

var cKeywords = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {}, "continue": {},
	"default": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "extern": {},
	"float": {}, "for": {}, "goto": {}, "if": {}, "int": {}, "long": {},
	"register": {}, "return": {}, "short": {}, "signed": {}, "sizeof": {},
	"static": {}, "struct": {}, "switch": {}, "typedef": {}, "union": {},
	"unsigned": {}, "void": {}, "volatile": {}, "while": {}, "interface": {},
}

func cParamName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("param%d", i)
	}
	if _, ok := cKeywords[name]; ok {
		return name + "_"
	}
	return name
}

// cParams renders the C parameter list of m after the This pointer.
func cParams(m *types.Method) ([]string, error) {
	out := make([]string, 0, len(m.Params)+2)
	for i, p := range m.Params {
		abi, err := p.Type.CABIParam()
		if err != nil {
			return nil, err
		}
		name := cParamName(p.Name, i)
		switch {
		case p.Array && p.ByRef:
			out = append(out, "UINT32* "+name+"Length", abi+"** "+name)
		case p.Array:
			out = append(out, "UINT32 "+name+"Length", abi+"* "+name)
		case p.Out:
			out = append(out, abi+"* "+name)
		default:
			out = append(out, abi+" "+name)
		}
	}
	if r := m.Return; r != nil {
		abi, err := r.Type.CABIParam()
		if err != nil {
			return nil, err
		}
		if r.Array {
			out = append(out, "UINT32* resultLength", abi+"** result")
		} else {
			out = append(out, abi+"* result")
		}
	}
	return out, nil
}

// writeVtable emits the vtable struct and interface declaration of name.
func writeVtable(w *Writer, name string, base vtableBase, methods []*types.Method) error {
	this := name + "* This"
	w.Line("typedef struct %sVtbl", name)
	w.Line("{")
	w.IndentPush()
	w.Line("BEGIN_INTERFACE")
	w.Line("HRESULT (STDMETHODCALLTYPE* QueryInterface)(%s, REFIID riid, void** ppvObject);", this)
	w.Line("ULONG (STDMETHODCALLTYPE* AddRef)(%s);", this)
	w.Line("ULONG (STDMETHODCALLTYPE* Release)(%s);", this)
	if base == baseIInspectable {
		w.Line("HRESULT (STDMETHODCALLTYPE* GetIids)(%s, ULONG* iidCount, IID** iids);", this)
		w.Line("HRESULT (STDMETHODCALLTYPE* GetRuntimeClassName)(%s, HSTRING* className);", this)
		w.Line("HRESULT (STDMETHODCALLTYPE* GetTrustLevel)(%s, TrustLevel* trustLevel);", this)
	}
	for _, m := range methods {
		params, err := cParams(m)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", name, m.Name, err)
		}
		w.Line("HRESULT (STDMETHODCALLTYPE* %s)(%s);", abiMethodName(m), strings.Join(append([]string{this}, params...), ", "))
	}
	w.Line("END_INTERFACE")
	w.IndentPop()
	w.Line("} %sVtbl;", name)
	w.Blank()
	w.Line("interface %s", name)
	w.Line("{")
	w.Line("    CONST_VTBL struct %sVtbl* lpVtbl;", name)
	w.Line("};")
	w.Blank()
	w.Line("EXTERN_C const IID IID_%s;", name)
	w.Blank()
	return nil
}

// headerDeps collects what a header needs from elsewhere: namespaces whose
// value types it embeds, and forward declarations of interface pointers.
type headerDeps struct {
	self       string
	namespaces map[string]struct{}
	fwd        map[string]struct{}
}

func newHeaderDeps(self string) *headerDeps {
	return &headerDeps{self: self, namespaces: make(map[string]struct{}), fwd: make(map[string]struct{})}
}

func (d *headerDeps) add(t types.Type) error {
	switch t.(type) {
	case *types.Struct, *types.Enum:
		if t.Namespace() != d.self {
			d.namespaces[t.Namespace()] = struct{}{}
		}
		return nil
	}
	decl, err := t.CForwardDeclaration()
	if err != nil {
		return err
	}
	if decl != "" {
		d.fwd[decl] = struct{}{}
	}
	return nil
}

func (d *headerDeps) addMethods(methods []*types.Method) error {
	for _, m := range methods {
		for _, t := range m.Types() {
			if err := d.add(t); err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
		}
	}
	return nil
}

func (d *headerDeps) sortedNamespaces() []string {
	out := make([]string, 0, len(d.namespaces))
	for ns := range d.namespaces {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

func (d *headerDeps) sortedFwd() []string {
	out := make([]string, 0, len(d.fwd))
	for f := range d.fwd {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// fastABIMethods returns the methods folded into the default interface of
// a fast-ABI class: the default interface's own, then those of the class's
// other exclusive interfaces in declaration order.
func fastABIMethods(m *Module, iface *types.Interface) ([]*types.Method, *types.Class) {
	cls, ok := m.Types.FastABIOwner(iface)
	if !ok {
		return iface.Methods, nil
	}
	methods := slices.Clone(iface.Methods)
	for _, t := range cls.Interfaces {
		other, ok := t.(*types.Interface)
		if !ok || other == iface || other.ExclusiveTo != cls.FullName() {
			continue
		}
		methods = append(methods, other.Methods...)
	}
	return methods, cls
}

// orderStructs puts structs embedded by value before their users.
func orderStructs(structs []*types.Struct) []*types.Struct {
	out := make([]*types.Struct, 0, len(structs))
	local := make(map[*types.Struct]bool, len(structs))
	for _, s := range structs {
		local[s] = true
	}
	done := make(map[*types.Struct]bool, len(structs))
	var visit func(s *types.Struct)
	visit = func(s *types.Struct) {
		if done[s] {
			return
		}
		done[s] = true
		for _, f := range s.Fields {
			if dep, ok := f.Type.(*types.Struct); ok && local[dep] {
				visit(dep)
			}
		}
		out = append(out, s)
	}
	for _, s := range structs {
		visit(s)
	}
	return out
}

// NamespaceHeader renders include/<ns>.h.
func NamespaceHeader(m *Module, ns *driver.NamespaceOutput) (File, error) {
	if err := requireGenerics(m, ns); err != nil {
		return File{}, err
	}
	file := ns.Name + ".h"
	guard := guardName(file)

	deps := newHeaderDeps(ns.Name)
	for _, s := range ns.Structs {
		for _, f := range s.Fields {
			if err := deps.add(f.Type); err != nil {
				return File{}, fmt.Errorf("%s.%s: %w", s.FullName(), f.Name, err)
			}
		}
	}
	vtables := make(map[*types.Interface][]*types.Method)
	for _, i := range ns.Interfaces {
		if i.IsGeneric() {
			continue
		}
		methods, _ := fastABIMethods(m, i)
		vtables[i] = methods
		if err := deps.addMethods(methods); err != nil {
			return File{}, fmt.Errorf("%s.%w", i.FullName(), err)
		}
	}
	for _, d := range ns.Delegates {
		if d.IsGeneric() {
			continue
		}
		if err := deps.addMethods([]*types.Method{d.Invoke}); err != nil {
			return File{}, fmt.Errorf("%s.%w", d.FullName(), err)
		}
	}

	w := NewWriter(Options{})
	w.Line("// %s", banner)
	w.Line("#ifndef %s", guard)
	w.Line("#define %s", guard)
	w.Blank()
	w.Line("#include <%s>", BaseHeader)
	for _, other := range deps.sortedNamespaces() {
		w.Line("#include \"%s.h\"", other)
	}
	w.Blank()

	for _, i := range ns.Interfaces {
		if !i.IsGeneric() {
			decl, _ := i.CForwardDeclaration()
			deps.fwd[decl] = struct{}{}
		}
	}
	for _, d := range ns.Delegates {
		if !d.IsGeneric() {
			decl, _ := d.CForwardDeclaration()
			deps.fwd[decl] = struct{}{}
		}
	}
	for _, decl := range deps.sortedFwd() {
		w.WriteString(decl)
	}
	w.Blank()

	for _, e := range ns.Enums {
		name := e.ABIName()
		w.Line("typedef enum %s", name)
		w.Line("{")
		w.IndentPush()
		for _, v := range e.Values {
			if e.Flags {
				w.Line("%s_%s = 0x%x,", name, v.Name, uint32(v.Value))
			} else {
				w.Line("%s_%s = %d,", name, v.Name, v.Value)
			}
		}
		w.IndentPop()
		w.Line("} %s;", name)
		writeAlias(w, m, e)
		w.Blank()
	}

	for _, s := range orderStructs(ns.Structs) {
		w.Line("struct %s", s.ABIName())
		w.Line("{")
		w.IndentPush()
		for _, f := range s.Fields {
			abi, err := f.Type.CABIParam()
			if err != nil {
				return File{}, fmt.Errorf("%s.%s: %w", s.FullName(), f.Name, err)
			}
			w.Line("%s %s;", abi, f.Name)
		}
		w.IndentPop()
		w.Line("};")
		writeAlias(w, m, s)
		w.Blank()
	}

	for _, d := range ns.Delegates {
		if d.IsGeneric() {
			continue
		}
		if err := writeVtable(w, d.ABIName(), baseIUnknown, []*types.Method{d.Invoke}); err != nil {
			return File{}, err
		}
		writeAlias(w, m, d)
	}

	for _, i := range ns.Interfaces {
		if i.IsGeneric() {
			continue
		}
		if cls, ok := m.Types.FastABIOwner(i); ok {
			w.Line("/* fast ABI: default interface of %s */", cls.FullName())
		}
		if err := writeVtable(w, i.ABIName(), baseIInspectable, vtables[i]); err != nil {
			return File{}, err
		}
		writeAlias(w, m, i)
	}

	for _, c := range ns.Classes {
		id := strings.ReplaceAll(c.FullName(), ".", "_")
		w.Line("#ifndef RUNTIMECLASS_%s_DEFINED", id)
		w.Line("#define RUNTIMECLASS_%s_DEFINED", id)
		w.Line("extern const __declspec(selectany) _Null_terminated_ WCHAR RuntimeClass_%s[] = L\"%s\";", id, c.FullName())
		w.Line("#endif")
		w.Blank()
	}

	w.Line("#endif // %s", guard)
	return File{Path: path.Join(m.IncludeDir(), file), Content: w.Bytes()}, nil
}

func writeAlias(w *Writer, m *Module, t types.Type) {
	if alias, ok := types.CAlias(t, m.prefix()); ok {
		w.Line("#define %s %s", alias, t.ABIName())
	}
}

// GenericsHeader renders include/<Module>+Generics.h with one vtable per
// frozen instantiation of the module.
func GenericsHeader(m *Module) (File, error) {
	file := m.Name() + "+Generics.h"
	guard := guardName(file)
	entries := m.Members.Generics.Entries()

	deps := newHeaderDeps("")
	for _, e := range entries {
		for _, a := range e.Inst.Args {
			if err := deps.add(a); err != nil {
				return File{}, fmt.Errorf("%s: %w", e.Inst.FullName(), err)
			}
		}
		if err := deps.addMethods(e.Inst.Methods); err != nil {
			return File{}, fmt.Errorf("%s.%w", e.Inst.FullName(), err)
		}
		decl, err := e.Inst.CForwardDeclaration()
		if err != nil {
			return File{}, err
		}
		deps.fwd[decl] = struct{}{}
	}
	// instance vtables may pass any module struct by value
	for _, ns := range m.Members.Namespaces {
		deps.namespaces[ns.Name] = struct{}{}
	}

	w := NewWriter(Options{})
	w.Line("// %s", banner)
	w.Line("#ifndef %s", guard)
	w.Line("#define %s", guard)
	w.Blank()
	w.Line("#include <%s>", BaseHeader)
	for _, ns := range deps.sortedNamespaces() {
		w.Line("#include \"%s.h\"", ns)
	}
	w.Blank()
	for _, decl := range deps.sortedFwd() {
		w.WriteString(decl)
	}
	w.Blank()
	for _, e := range entries {
		w.Line("/* %s */", e.Inst.FullName())
		w.Line("/* %s */", e.Signature)
		base := baseIInspectable
		if e.Inst.IsDelegate() {
			base = baseIUnknown
		}
		if err := writeVtable(w, e.MangledName(), base, e.Inst.Methods); err != nil {
			return File{}, err
		}
	}
	w.Line("#endif // %s", guard)
	return File{Path: path.Join(m.IncludeDir(), file), Content: w.Bytes()}, nil
}

// UmbrellaHeader renders include/<Module>.h and the module map that exposes
// it to Swift as C<Module>.
func UmbrellaHeader(m *Module) []File {
	file := m.Name() + ".h"
	guard := guardName(file)
	w := NewWriter(Options{})
	w.Line("// %s", banner)
	w.Line("#ifndef %s", guard)
	w.Line("#define %s", guard)
	w.Blank()
	w.Line("#include <%s>", BaseHeader)
	for _, dep := range m.Deps {
		w.Line("#include <%s.h>", dep)
	}
	for _, ns := range m.Members.Namespaces {
		w.Line("#include \"%s.h\"", ns.Name)
	}
	w.Line("#include \"%s+Generics.h\"", m.Name())
	w.Blank()
	w.Line("#endif // %s", guard)

	mm := NewWriter(Options{})
	mm.Block(fmt.Sprintf("module %s {", m.CModule()), func() {
		mm.Line("umbrella header %q", file)
		mm.Line("export *")
	}, "}")

	return []File{
		{Path: path.Join(m.IncludeDir(), file), Content: w.Bytes()},
		{Path: path.Join(m.IncludeDir(), "module.modulemap"), Content: mm.Bytes()},
	}
}
