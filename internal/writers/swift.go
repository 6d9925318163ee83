package writers

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"swiftwinrt/internal/driver"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/types"
)

type swiftGen struct {
	m       *Module
	support string
}

func newSwiftGen(m *Module) *swiftGen {
	return &swiftGen{m: m, support: m.Settings.SupportModule()}
}

func (g *swiftGen) header(w *Writer) {
	w.Line("// %s", banner)
	w.Blank()
	w.Line("import Foundation")
	w.Line("import %s", g.m.CModule())
	for _, dep := range g.m.Deps {
		w.Line("import %s", dep)
	}
	w.Blank()
}

// annotate emits availability attributes carried by metadata.
func annotate(w *Writer, attrs []metadata.Attribute, experimental bool) error {
	d, ok, err := metadata.DeprecationOf(attrs)
	if err != nil {
		return err
	}
	if ok {
		if d.Kind == metadata.DeprecationRemove {
			w.Line("@available(*, unavailable, message: %s)", swiftString(d.Message))
		} else {
			w.Line("@available(*, deprecated, message: %s)", swiftString(d.Message))
		}
	}
	if experimental {
		w.Line("@_spi(WinRTExperimental)")
	}
	return nil
}

func annotateType(w *Writer, t types.Type) error {
	def, ok := types.TypeDefOf(t)
	if !ok {
		return nil
	}
	if h, ok, err := metadata.ContractHistoryOf(def); err != nil {
		return err
	} else if ok {
		first := h.FirstIntroduced()
		w.Line("/// Introduced in %s v%d.", first.Name, first.Version)
	}
	return annotate(w, def.Attributes(), t.IsExperimental())
}

func annotateMethod(w *Writer, m *types.Method) error {
	if !m.Def.IsValid() {
		return nil
	}
	return annotate(w, m.Def.Attributes(), metadata.HasAttribute(m.Def.Attributes(), metadata.AttrExperimental))
}

// NamespaceSwift renders the wrapper, implementation and ABI files of one
// namespace.
func NamespaceSwift(m *Module, ns *driver.NamespaceOutput) ([]File, error) {
	if err := requireGenerics(m, ns); err != nil {
		return nil, err
	}
	g := newSwiftGen(m)
	wrapper, err := g.wrapperFile(ns)
	if err != nil {
		return nil, fmt.Errorf("%s wrapper: %w", ns.Name, err)
	}
	impl, err := g.implFile(ns)
	if err != nil {
		return nil, fmt.Errorf("%s impl: %w", ns.Name, err)
	}
	abi, err := g.abiFile(ns)
	if err != nil {
		return nil, fmt.Errorf("%s abi: %w", ns.Name, err)
	}
	dir := m.SwiftDir()
	return []File{
		{Path: path.Join(dir, ns.Name+".swift"), Content: wrapper},
		{Path: path.Join(dir, ns.Name+"+Impl.swift"), Content: impl},
		{Path: path.Join(dir, ns.Name+"+ABI.swift"), Content: abi},
	}, nil
}

// projectedInterface reports whether i gets a protocol in the wrapper layer.
func projectedInterface(i *types.Interface) bool { return !i.IsGeneric() && i.ExclusiveTo == "" }

func (g *swiftGen) wrapperFile(ns *driver.NamespaceOutput) ([]byte, error) {
	w := NewWriter(Options{})
	g.header(w)
	swiftNS := types.SwiftNamespace(ns.Name)
	w.Line("public enum %s {}", swiftNS)
	w.Blank()

	var err error
	w.Block("extension "+swiftNS+" {", func() {
		for _, e := range ns.Enums {
			if err = annotateType(w, e); err != nil {
				return
			}
			w.Line("public typealias %s = %s", e.Name(), e.ABIName())
		}
		w.Blank()
		for _, s := range ns.Structs {
			if err = g.writeStruct(w, s); err != nil {
				return
			}
		}
		for _, d := range ns.Delegates {
			if d.IsGeneric() {
				continue
			}
			if err = annotateType(w, d); err != nil {
				return
			}
			w.Line("public typealias %s = %s", d.Name(), closureType(d.Invoke))
		}
		w.Blank()
		for _, i := range ns.Interfaces {
			if !projectedInterface(i) {
				continue
			}
			if err = g.writeProtocol(w, i); err != nil {
				return
			}
		}
		for _, c := range ns.Classes {
			if err = g.writeClass(w, c); err != nil {
				return
			}
		}
	}, "}")
	if err != nil {
		return nil, err
	}

	for _, e := range ns.Enums {
		w.Blank()
		w.Block(fmt.Sprintf("extension %s.%s {", swiftNS, e.Name()), func() {
			for _, v := range e.Values {
				w.Line("public static var %s: Self { %s_%s }", memberName(v.Name), e.ABIName(), v.Name)
			}
		}, "}")
		conformance := "Hashable, Codable"
		if e.Flags {
			conformance = "OptionSet, @unchecked Sendable"
		}
		w.Line("extension %s.%s: %s {}", swiftNS, e.Name(), conformance)
	}
	return w.Bytes(), nil
}

func closureType(invoke *types.Method) string {
	parts := make([]string, len(invoke.Params))
	for i, p := range invoke.Params {
		parts[i] = swiftParamType(p)
	}
	ret := "()"
	if invoke.Return != nil {
		ret = swiftParamType(*invoke.Return)
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}

func (g *swiftGen) writeStruct(w *Writer, s *types.Struct) error {
	if err := annotateType(w, s); err != nil {
		return err
	}
	w.Block(fmt.Sprintf("public struct %s: Hashable, Codable, Sendable {", s.Name()), func() {
		var params, assigns []string
		for _, f := range s.Fields {
			name := memberName(f.Name)
			w.Line("public var %s: %s = %s", name, swiftType(f.Type), swiftDefault(f.Type))
			params = append(params, name+": "+swiftType(f.Type))
			assigns = append(assigns, "self."+name+" = "+name)
		}
		w.Line("public init() {}")
		if len(params) > 0 {
			w.Block("public init("+strings.Join(params, ", ")+") {", func() {
				for _, a := range assigns {
					w.Line("%s", a)
				}
			}, "}")
		}
	}, "}")
	w.Blank()
	return nil
}

// funcDecl renders the Swift signature of a non-accessor method.
func funcDecl(meth *types.Method) string {
	params := make([]string, len(meth.Params))
	for i, p := range meth.Params {
		name := paramName(p, i)
		if p.Out {
			params[i] = "_ " + name + ": inout " + swiftParamType(p)
		} else {
			params[i] = "_ " + name + ": " + swiftParamType(p)
		}
	}
	name := meth.Name
	if meth.Overload != "" {
		name = meth.Overload
	}
	s := fmt.Sprintf("func %s(%s) throws", memberName(name), strings.Join(params, ", "))
	if meth.Return != nil {
		s += " -> " + swiftParamType(*meth.Return)
	}
	return s
}

func callArgs(meth *types.Method) string {
	args := make([]string, len(meth.Params))
	for i, p := range meth.Params {
		args[i] = paramName(p, i)
		if p.Out {
			args[i] = "&" + args[i]
		}
	}
	return strings.Join(args, ", ")
}

func (g *swiftGen) writeProtocol(w *Writer, i *types.Interface) error {
	if err := annotateType(w, i); err != nil {
		return err
	}
	var err error
	w.Block(fmt.Sprintf("public protocol %s: WinRTInterface {", i.Name()), func() {
		for _, p := range types.PropertiesOf(i.Methods) {
			access := "get"
			if p.Setter != nil {
				access = "get set"
			}
			w.Line("var %s: %s { %s }", memberName(p.Name), swiftType(p.Type), access)
		}
		for _, e := range types.EventsOf(i.Methods) {
			w.Line("var %s: Event<%s> { get }", memberName(e.Name), strings.TrimSuffix(swiftType(e.Handler), "?"))
		}
		for _, meth := range i.Methods {
			if meth.IsAccessor() {
				continue
			}
			if err = annotateMethod(w, meth); err != nil {
				return
			}
			w.Line("%s", funcDecl(meth))
		}
	}, "}")
	if err != nil {
		return err
	}
	w.Line("public typealias Any%s = any %s", i.Name(), i.Name())
	w.Blank()
	return nil
}

// writeForwarders emits the members of an interface forwarding to target,
// an expression of the interface's ABI class.
func writeForwarders(w *Writer, methods []*types.Method, target, access string) error {
	for _, p := range types.PropertiesOf(methods) {
		w.Block(fmt.Sprintf("%svar %s: %s {", access, memberName(p.Name), swiftType(p.Type)), func() {
			if p.Getter != nil {
				w.Line("get { try! %s.%sImpl() }", target, abiMethodName(p.Getter))
			}
			if p.Setter != nil {
				w.Line("set { try! %s.%sImpl(newValue) }", target, abiMethodName(p.Setter))
			}
		}, "}")
	}
	for _, e := range types.EventsOf(methods) {
		// static events have no instance to hold the subscription list
		if e.Add == nil || e.Remove == nil || strings.Contains(access, "static") {
			continue
		}
		handler := strings.TrimSuffix(swiftType(e.Handler), "?")
		w.Block(fmt.Sprintf("%slazy var %s: Event<%s> = {", access, memberName(e.Name), handler), func() {
			w.Line(".init(")
			w.Line("    add: { [weak self] in")
			w.Line("        guard let this = self?.%s else { return .init() }", strings.TrimPrefix(target, "self."))
			w.Line("        return try! this.%sImpl($0)", abiMethodName(e.Add))
			w.Line("    },")
			w.Line("    remove: { [weak self] in")
			w.Line("        try? self?.%s.%sImpl($0)", strings.TrimPrefix(target, "self."), abiMethodName(e.Remove))
			w.Line("    }")
			w.Line(")")
		}, "}()")
	}
	for _, meth := range methods {
		if meth.IsAccessor() {
			continue
		}
		if err := annotateMethod(w, meth); err != nil {
			return err
		}
		w.Block(access+funcDecl(meth)+" {", func() {
			w.Line("try %s.%sImpl(%s)", target, abiMethodName(meth), callArgs(meth))
		}, "}")
	}
	return nil
}

// abiClassOf names the Swift ABI class of an interface-like type.
func abiClassOf(t types.Type) string {
	if inst, ok := t.(*types.GenericInst); ok {
		return inst.MangledName() + "Abi"
	}
	return abiNamespace(t.Namespace()) + "." + t.Name()
}

func (g *swiftGen) writeClass(w *Writer, c *types.Class) error {
	if err := annotateType(w, c); err != nil {
		return err
	}
	super := "WinRTClass"
	if c.Base != nil {
		super = c.Base.SwiftFullName()
	}
	decl := "open class"
	if c.Sealed || c.IsStatic() {
		decl = "public final class"
	}
	var err error
	w.Block(fmt.Sprintf("%s %s: %s {", decl, c.Name(), super), func() {
		if c.Default != nil {
			w.Line("private typealias SwiftABI = %s", abiClassOf(c.Default))
			w.Line("private typealias CABI = %s", c.Default.ABIName())
			w.Line("private var _default: SwiftABI!")
			w.Blank()
			w.Block("public static func from(abi: ComPtr<CABI>?) -> "+c.Name()+"? {", func() {
				w.Line("guard let abi = abi else { return nil }")
				w.Line("return .init(fromAbi: %s.IInspectable(abi))", g.support)
			}, "}")
			w.Block("public required init(fromAbi: "+g.support+".IInspectable) {", func() {
				w.Line("super.init(fromAbi)")
				w.Line("_default = try! fromAbi.QueryInterface()")
			}, "}")
		}
		if c.Activatable {
			w.Block("public init() {", func() {
				w.Line("super.init(try! RoActivateInstance(HString(%s)))", swiftString(c.FullName()))
				w.Line("_default = try! super.QueryInterface()")
			}, "}")
		}
		for _, f := range c.Factories {
			g.writeFactory(w, c, f)
		}
		for _, f := range c.Composable {
			g.writeFactory(w, c, f)
		}
		for _, s := range c.Statics {
			field := "_" + s.Name()
			w.Line("private static let %s: %s = try! RoGetActivationFactory(HString(%s))", field, abiClassOf(s), swiftString(c.FullName()))
			if err = writeForwarders(w, methodsOf(s), field, "public static "); err != nil {
				return
			}
		}
		w.Blank()
		if c.Default != nil {
			if err = writeForwarders(w, methodsOf(c.Default), "_default", "public "); err != nil {
				return
			}
		}
		for _, t := range c.Interfaces {
			if t == c.Default {
				continue
			}
			field := "_" + types.SwiftName(t.Name())
			w.Line("private lazy var %s: %s! = try! _default.QueryInterface()", field, abiClassOf(t))
			if err = writeForwarders(w, methodsOf(t), field, "public "); err != nil {
				return
			}
		}
	}, "}")
	w.Blank()
	return err
}

func (g *swiftGen) writeFactory(w *Writer, c *types.Class, factory types.Type) {
	field := "_" + factory.Name()
	w.Line("private static let %s: %s = try! RoGetActivationFactory(HString(%s))", field, abiClassOf(factory), swiftString(c.FullName()))
	for _, meth := range methodsOf(factory) {
		params := make([]string, len(meth.Params))
		for i, p := range meth.Params {
			params[i] = paramName(p, i) + ": " + swiftParamType(p)
		}
		w.Block("public init("+strings.Join(params, ", ")+") {", func() {
			w.Line("super.init(try! Self.%s.%sImpl(%s))", field, abiMethodName(meth), callArgs(meth))
			w.Line("_default = try! super.QueryInterface()")
		}, "}")
	}
}

func (g *swiftGen) implFile(ns *driver.NamespaceOutput) ([]byte, error) {
	w := NewWriter(Options{})
	g.header(w)
	var err error
	w.Block("public enum "+implNamespace(ns.Name)+" {", func() {
		for _, i := range ns.Interfaces {
			if !projectedInterface(i) {
				continue
			}
			if err = g.writeInterfaceBridge(w, i, i.Name(), i.SwiftFullName(), abiClassOf(i)); err != nil {
				return
			}
		}
		for _, d := range ns.Delegates {
			if d.IsGeneric() {
				continue
			}
			g.writeDelegateBridge(w, d.Name(), d.SwiftFullName(), d.ABIName(), abiClassOf(d), d.Invoke)
		}
	}, "}")
	return w.Bytes(), err
}

func (g *swiftGen) writeInterfaceBridge(w *Writer, t types.Type, name, projection, abiClass string) error {
	w.Block("public enum "+name+"Bridge: AbiInterfaceBridge {", func() {
		w.Line("public typealias CABI = %s", t.ABIName())
		w.Line("public typealias SwiftABI = %s", abiClass)
		w.Line("public typealias SwiftProjection = any %s", projection)
		w.Block("public static func from(abi: ComPtr<CABI>?) -> SwiftProjection? {", func() {
			w.Line("guard let abi = abi else { return nil }")
			w.Line("return %sImpl(abi)", name)
		}, "}")
	}, "}")
	w.Blank()
	var err error
	w.Block(fmt.Sprintf("fileprivate class %sImpl: %s, WinRTAbiImpl {", name, projection), func() {
		w.Line("fileprivate typealias Bridge = %sBridge", name)
		w.Line("fileprivate let _default: Bridge.SwiftABI")
		w.Line("fileprivate var thisPtr: %s.IInspectable { _default }", g.support)
		w.Line("fileprivate init(_ fromAbi: ComPtr<Bridge.CABI>) { _default = Bridge.SwiftABI(fromAbi) }")
		err = writeForwarders(w, methodsOf(t), "_default", "fileprivate ")
	}, "}")
	w.Blank()
	return err
}

func (g *swiftGen) writeDelegateBridge(w *Writer, name, handler, cabi, abiClass string, invoke *types.Method) {
	params := make([]string, len(invoke.Params))
	for i, p := range invoke.Params {
		params[i] = paramName(p, i)
	}
	w.Block("public class "+name+"Bridge: WinRTDelegateBridge {", func() {
		w.Line("public typealias Handler = %s", handler)
		w.Line("public typealias CABI = %s", cabi)
		w.Line("public typealias SwiftABI = %s", abiClass)
		w.Block("public static func from(abi: ComPtr<CABI>?) -> Handler? {", func() {
			w.Line("guard let abi = abi else { return nil }")
			w.Line("let _default = SwiftABI(abi)")
			w.Line("let handler: Handler = { (%s) in", strings.Join(params, ", "))
			w.Line("    try! _default.%sImpl(%s)", abiMethodName(invoke), strings.Join(params, ", "))
			w.Line("}")
			w.Line("return handler")
		}, "}")
	}, "}")
	w.Blank()
}

func (g *swiftGen) abiFile(ns *driver.NamespaceOutput) ([]byte, error) {
	w := NewWriter(Options{})
	g.header(w)

	for _, i := range ns.Interfaces {
		if !i.IsGeneric() {
			g.writeIIDVar(w, i.ABIName(), i.Guid)
		}
	}
	for _, d := range ns.Delegates {
		if !d.IsGeneric() {
			g.writeIIDVar(w, d.ABIName(), d.Guid)
		}
	}

	var err error
	w.Block("public enum "+abiNamespace(ns.Name)+" {", func() {
		for _, i := range ns.Interfaces {
			if i.IsGeneric() {
				continue
			}
			methods, _ := fastABIMethods(g.m, i)
			if err = g.writeAbiClass(w, i.Name(), i.ABIName(), "IInspectable", methods); err != nil {
				return
			}
			if projectedInterface(i) {
				w.Line("public typealias %sWrapper = InterfaceWrapperBase<%s.%sBridge>", i.Name(), implNamespace(ns.Name), i.Name())
				w.Blank()
			}
		}
		for _, d := range ns.Delegates {
			if d.IsGeneric() {
				continue
			}
			if err = g.writeAbiClass(w, d.Name(), d.ABIName(), "IUnknown", []*types.Method{d.Invoke}); err != nil {
				return
			}
			w.Line("public typealias %sWrapper = InterfaceWrapperBase<%s.%sBridge>", d.Name(), implNamespace(ns.Name), d.Name())
			w.Blank()
		}
		for _, s := range ns.Structs {
			if !g.m.Types.IsBlittable(s) {
				g.writeStructHolder(w, s)
			}
		}
	}, "}")
	if err != nil {
		return nil, err
	}

	for _, s := range ns.Structs {
		w.Blank()
		g.writeStructConversions(w, s)
	}
	return w.Bytes(), nil
}

func (g *swiftGen) writeAbiClass(w *Writer, name, cType, base string, methods []*types.Method) error {
	var err error
	w.Block(fmt.Sprintf("public class %s: %s.%s {", name, g.support, base), func() {
		w.Line("override public class var IID: %s.IID { IID_%s }", g.support, cType)
		for _, meth := range methods {
			if err = g.writeAbiMethod(w, cType, meth); err != nil {
				return
			}
		}
	}, "}")
	w.Blank()
	return err
}

func (g *swiftGen) writeStructHolder(w *Writer, s *types.Struct) {
	w.Block("public class _ABI_"+s.Name()+" {", func() {
		w.Line("public var val: %s = .init()", s.ABIName())
		w.Line("public init() {}")
		w.Block("public init(from swift: "+s.SwiftFullName()+") throws {", func() {
			for _, f := range s.Fields {
				name := memberName(f.Name)
				switch v := f.Type.(type) {
				case *types.Fundamental:
					if v.FundamentalKind() == types.String {
						w.Line("val.%s = try HString(swift.%s).detach()", f.Name, name)
						continue
					}
					w.Line("val.%s = .init(from: swift.%s)", f.Name, name)
				case *types.Struct:
					if g.m.Types.IsBlittable(v) {
						w.Line("val.%s = .from(swift: swift.%s)", f.Name, name)
					} else {
						w.Line("val.%s = try %s._ABI_%s(from: swift.%s).detach()", f.Name, abiNamespace(v.Namespace()), v.Name(), name)
					}
				default:
					w.Line("val.%s = swift.%s", f.Name, name)
				}
			}
		}, "}")
		w.Block("public func detach() -> "+s.ABIName()+" {", func() {
			w.Line("let result = val")
			for _, f := range s.Fields {
				if isPointerField(f.Type) {
					w.Line("val.%s = nil", f.Name)
				}
			}
			w.Line("return result")
		}, "}")
		w.Block("deinit {", func() {
			for _, f := range s.Fields {
				if fk, ok := f.Type.(*types.Fundamental); ok && fk.FundamentalKind() == types.String {
					w.Line("WindowsDeleteString(val.%s)", f.Name)
				}
			}
		}, "}")
	}, "}")
	w.Blank()
}

func isPointerField(t types.Type) bool {
	c, err := cSwiftType(t)
	return err == nil && isPointer(c)
}

func (g *swiftGen) writeStructConversions(w *Writer, s *types.Struct) {
	w.Block("extension "+s.SwiftFullName()+" {", func() {
		w.Block("public static func from(abi: "+s.ABIName()+") -> "+s.SwiftFullName()+" {", func() {
			args := make([]string, len(s.Fields))
			for i, f := range s.Fields {
				args[i] = memberName(f.Name) + ": " + fromABIField(f)
			}
			w.Line(".init(%s)", strings.Join(args, ", "))
		}, "}")
		if g.m.Types.IsBlittable(s) {
			w.Block("public static func from(swift: "+s.SwiftFullName()+") -> "+s.ABIName()+" {", func() {
				args := make([]string, len(s.Fields))
				for i, f := range s.Fields {
					args[i] = f.Name + ": swift." + memberName(f.Name)
				}
				w.Line(".init(%s)", strings.Join(args, ", "))
			}, "}")
		}
	}, "}")
}

func fromABIField(f types.Field) string {
	src := "abi." + f.Name
	switch v := f.Type.(type) {
	case *types.Fundamental:
		switch v.FundamentalKind() {
		case types.String, types.Boolean, types.Char16, types.Guid:
			return ".init(from: " + src + ")"
		}
	case *types.Struct:
		return ".from(abi: " + src + ")"
	}
	return src
}

func (g *swiftGen) writeIIDVar(w *Writer, cName string, guid uuid.UUID) {
	w.Block("private var IID_"+cName+": "+g.support+".IID {", func() {
		w.Line("%s", iidLiteral(guid))
	}, "}")
	w.Blank()
}
