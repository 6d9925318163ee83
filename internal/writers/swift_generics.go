package writers

import (
	"fmt"
	"path"
	"strings"

	"swiftwinrt/internal/generics"
	"swiftwinrt/internal/types"
)

// GenericsSwift renders <Module>+Generics.swift: one ABI class, bridge and
// wrapper per frozen instantiation, so namespaces sharing an instantiation
// share one definition.
func GenericsSwift(m *Module) (File, error) {
	g := newSwiftGen(m)
	w := NewWriter(Options{})
	g.header(w)
	for _, e := range m.Members.Generics.Entries() {
		if err := g.writeGenericEntry(w, e); err != nil {
			return File{}, fmt.Errorf("%s: %w", e.Inst.FullName(), err)
		}
	}
	return File{Path: path.Join(m.SwiftDir(), m.Name()+"+Generics.swift"), Content: w.Bytes()}, nil
}

func (g *swiftGen) writeGenericEntry(w *Writer, e *generics.Entry) error {
	inst := e.Inst
	name := e.MangledName()
	iid, err := types.IID(inst)
	if err != nil {
		return err
	}
	w.Line("// %s", inst.FullName())
	w.Line("// referenced from %s", strings.Join(e.Namespaces, ", "))
	g.writeIIDVar(w, name, iid)

	abiClass := name + "Abi"
	if invoke, ok := inst.Invoke(); ok {
		if err := g.writeAbiClass(w, abiClass, name, "IUnknown", []*types.Method{invoke}); err != nil {
			return err
		}
		w.Line("public typealias %sHandler = %s", name, closureType(invoke))
		g.writeDelegateBridge(w, name, name+"Handler", name, abiClass, invoke)
	} else {
		if err := g.writeAbiClass(w, abiClass, name, "IInspectable", inst.Methods); err != nil {
			return err
		}
		if err := g.writeInterfaceBridge(w, inst, name, inst.SwiftFullName(), abiClass); err != nil {
			return err
		}
	}
	w.Line("public typealias %sWrapper = InterfaceWrapperBase<%sBridge>", name, name)
	w.Blank()
	return nil
}
