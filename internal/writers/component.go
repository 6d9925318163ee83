package writers

import (
	"fmt"
	"strings"

	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
)

// DefaultComponentName names the registration file when none is configured.
const DefaultComponentName = "Component"

// ComponentName returns the configured registration name or the default.
func ComponentName(c *settings.Component) string {
	if c.Name == "" {
		return DefaultComponentName
	}
	return c.Name
}

// ComponentFiles renders the activation-factory registration of classes and
// one implementation stub per class. Paths are relative to the component
// folder. Stubs are marked Preserve.
func ComponentFiles(c *settings.Component, classes []*types.Class) []File {
	name := ComponentName(c)
	out := []File{{Path: name + ".swift", Content: registration(c, name, classes)}}
	for _, cls := range classes {
		out = append(out, File{Path: cls.Name() + ".swift", Content: classStub(c, cls), Preserve: true})
	}
	return out
}

func componentImports(w *Writer, c *settings.Component) {
	w.Line("import Foundation")
	if c.Library != "" {
		w.Line("import %s", c.Library)
	}
	w.Blank()
}

func registration(c *settings.Component, name string, classes []*types.Class) []byte {
	w := NewWriter(Options{})
	w.Line("// %s", banner)
	componentImports(w, c)
	entry := c.Prefix + "DllGetActivationFactory"

	if c.Optimize {
		w.Block("private let factories: [String: () -> IActivationFactory] = [", func() {
			for _, cls := range classes {
				w.Line("%s: { %sFactory() },", swiftString(cls.FullName()), cls.Name())
			}
		}, "]")
		w.Blank()
	}

	w.Line("@_cdecl(%s)", swiftString(entry))
	w.Block(fmt.Sprintf("public func %s_%s(_ activatableClassId: HSTRING?, _ factory: UnsafeMutablePointer<UnsafeMutableRawPointer?>?) -> HRESULT {", name, entry), func() {
		w.Line("let id = String(from: activatableClassId)")
		if c.Optimize {
			w.Line("guard let make = factories[id] else { return CLASS_E_CLASSNOTAVAILABLE }")
			w.Line("factory?.pointee = make().detach()")
			w.Line("return S_OK")
			return
		}
		w.Block("switch id {", func() {
			for _, cls := range classes {
				w.Line("case %s:", swiftString(cls.FullName()))
				w.Line("    factory?.pointee = %sFactory().detach()", cls.Name())
			}
			w.Line("default:")
			w.Line("    return CLASS_E_CLASSNOTAVAILABLE")
		}, "}")
		w.Line("return S_OK")
	}, "}")

	for _, cls := range classes {
		w.Blank()
		w.Block(fmt.Sprintf("private final class %sFactory: IActivationFactory {", cls.Name()), func() {
			if cls.Activatable {
				w.Line("override func ActivateInstance() throws -> IInspectable { %s() }", cls.Name())
			} else {
				w.Line("override func ActivateInstance() throws -> IInspectable { throw WinRTError(hr: E_NOTIMPL) }")
			}
		}, "}")
	}
	return w.Bytes()
}

func classStub(c *settings.Component, cls *types.Class) []byte {
	w := NewWriter(Options{})
	w.Line("// Implementation of %s.", cls.FullName())
	componentImports(w, c)

	conforms := []string{"WinRTClass"}
	var methods []*types.Method
	for _, t := range cls.Interfaces {
		if i, ok := t.(*types.Interface); ok && i.ExclusiveTo == "" {
			conforms = append(conforms, t.SwiftFullName())
		}
		methods = append(methods, methodsOf(t)...)
	}
	w.Block(fmt.Sprintf("public final class %s: %s {", cls.Name(), strings.Join(conforms, ", ")), func() {
		if cls.Activatable {
			w.Line("public override init() {}")
		}
		for _, p := range types.PropertiesOf(methods) {
			w.Line("public var %s: %s = %s", memberName(p.Name), swiftType(p.Type), swiftDefault(p.Type))
		}
		for _, e := range types.EventsOf(methods) {
			w.Line("public var %s = EventSource<%s>()", memberName(e.Name), strings.TrimSuffix(swiftType(e.Handler), "?"))
		}
		for _, m := range methods {
			if m.IsAccessor() {
				continue
			}
			w.Block("public "+funcDecl(m)+" {", func() {
				w.Line("throw WinRTError(hr: E_NOTIMPL)")
			}, "}")
		}
	}, "}")
	return w.Bytes()
}
