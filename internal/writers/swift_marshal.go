package writers

import (
	"fmt"
	"strings"

	"swiftwinrt/internal/types"
)

// abiNamespace is the Swift enum holding the ABI classes of a namespace.
func abiNamespace(ns string) string { return "__ABI_" + types.SwiftNamespace(ns) }

// implNamespace is the Swift enum holding the bridges of a namespace.
func implNamespace(ns string) string { return "__IMPL_" + types.SwiftNamespace(ns) }

func localName(name string) string { return "_" + strings.Trim(name, "`") }

// bridgeOf names the bridge that turns an ABI pointer of t into its
// projection.
func bridgeOf(t types.Type) string {
	switch v := t.(type) {
	case *types.GenericInst:
		return v.MangledName() + "Bridge"
	case *types.Interface, *types.Delegate:
		return implNamespace(t.Namespace()) + "." + t.Name() + "Bridge"
	}
	return ""
}

// wrapperOf names the wrapper that hands a projection to the ABI.
func wrapperOf(t types.Type) string {
	switch v := t.(type) {
	case *types.GenericInst:
		return v.MangledName() + "Wrapper"
	case *types.Interface, *types.Delegate:
		return abiNamespace(t.Namespace()) + "." + t.Name() + "Wrapper"
	}
	return ""
}

// cSwiftType is the spelling of t's C ABI type as imported into Swift.
func cSwiftType(t types.Type) (string, error) {
	switch v := t.(type) {
	case *types.Fundamental:
		switch v.FundamentalKind() {
		case types.String:
			return "HSTRING?", nil
		case types.Object:
			return "UnsafeMutablePointer<C_IInspectable>?", nil
		}
		return v.ABIName(), nil
	case *types.Class:
		if v.Default == nil {
			return "", fmt.Errorf("%s: class has no default interface", v.FullName())
		}
		return cSwiftType(v.Default)
	case *types.Interface, *types.Delegate, *types.GenericInst:
		return "UnsafeMutablePointer<" + t.ABIName() + ">?", nil
	case *types.Mapped:
		if v.MappedKind() == types.MappedIAsyncInfo {
			return "UnsafeMutablePointer<" + t.ABIName() + ">?", nil
		}
	}
	return t.ABIName(), nil
}

func isPointer(cType string) bool { return strings.HasSuffix(cType, "?") }

// marshalIn returns the setup lines and call arguments that pass an input
// parameter across the ABI.
func (g *swiftGen) marshalIn(p types.Param, name string) ([]string, []string) {
	local := localName(name)
	if p.Array {
		return []string{fmt.Sprintf("let %s = try %s.toABI()", local, name)},
			[]string{"UInt32(" + local + ".count)", local + ".start"}
	}
	switch v := p.Type.(type) {
	case *types.Fundamental:
		switch v.FundamentalKind() {
		case types.String:
			return []string{fmt.Sprintf("let %s = try HString(%s)", local, name)}, []string{local + ".get()"}
		case types.Boolean, types.Char16, types.Guid:
			return nil, []string{".init(from: " + name + ")"}
		case types.Object:
			return []string{
				fmt.Sprintf("let %sWrapper = %s.AnyWrapper(%s)", local, abiNamespace(g.support), name),
				fmt.Sprintf("let %s = try! %sWrapper?.toABI { $0 }", local, local),
			}, []string{local}
		}
	case *types.Struct:
		if g.m.Types.IsBlittable(v) {
			return nil, []string{".from(swift: " + name + ")"}
		}
		return []string{fmt.Sprintf("let %s = try %s._ABI_%s(from: %s)", local, abiNamespace(v.Namespace()), v.Name(), name)},
			[]string{local + ".val"}
	case *types.Interface, *types.Delegate, *types.GenericInst:
		return []string{
			fmt.Sprintf("let %sWrapper = %s(%s)", local, wrapperOf(v), name),
			fmt.Sprintf("let %s = try! %sWrapper?.toABI { $0 }", local, local),
		}, []string{local}
	case *types.Class:
		return nil, []string{"RawPointer(" + name + ")"}
	case *types.Mapped:
		if v.MappedKind() == types.MappedIAsyncInfo {
			return nil, []string{"RawPointer(" + name + ")"}
		}
	}
	return nil, []string{name}
}

// marshalOut returns the declarations, call arguments and the conversion
// expression of an out parameter or return value held in local.
func (g *swiftGen) marshalOut(p types.Param, local string) ([]string, []string, string, error) {
	cType, err := cSwiftType(p.Type)
	if err != nil {
		return nil, nil, "", err
	}
	if p.Array {
		elem := strings.TrimSuffix(cType, "?")
		return []string{
				fmt.Sprintf("var %sLength: UInt32 = 0", local),
				fmt.Sprintf("var %s: UnsafeMutablePointer<%s>?", local, elem),
				fmt.Sprintf("defer { CoTaskMemFree(%s) }", local),
			},
			[]string{"&" + local + "Length", "&" + local},
			fmt.Sprintf(".from(abi: (count: %sLength, start: %s))", local, local), nil
	}
	var decl string
	if isPointer(cType) {
		decl = fmt.Sprintf("var %s: %s", local, cType)
	} else {
		decl = fmt.Sprintf("var %s: %s = .init()", local, cType)
	}
	args := []string{"&" + local}
	switch v := p.Type.(type) {
	case *types.Fundamental:
		switch v.FundamentalKind() {
		case types.String, types.Boolean, types.Char16, types.Guid:
			return []string{decl}, args, ".init(from: " + local + ")", nil
		case types.Object:
			return []string{decl}, args, fmt.Sprintf("%s.AnyWrapper.unwrapFrom(abi: ComPtr(%s))", abiNamespace(g.support), local), nil
		}
	case *types.Struct:
		return []string{decl}, args, ".from(abi: " + local + ")", nil
	case *types.Interface, *types.Delegate, *types.GenericInst:
		return []string{decl}, args, bridgeOf(v) + ".from(abi: ComPtr(" + local + "))", nil
	case *types.Class:
		return []string{decl}, args, v.SwiftFullName() + ".from(abi: ComPtr(" + local + "))", nil
	case *types.Mapped:
		if v.MappedKind() == types.MappedIAsyncInfo {
			return []string{decl}, args, implNamespace(g.support) + ".IAsyncInfoBridge.from(abi: ComPtr(" + local + "))", nil
		}
	}
	return []string{decl}, args, local, nil
}

// writeAbiMethod emits the throwing Swift entry point of one vtable slot.
func (g *swiftGen) writeAbiMethod(w *Writer, cType string, meth *types.Method) error {
	var params, setup, args, post []string
	for i, p := range meth.Params {
		name := paramName(p, i)
		if p.Out {
			params = append(params, "_ "+name+": inout "+swiftParamType(p))
			decls, a, conv, err := g.marshalOut(p, localName(name))
			if err != nil {
				return fmt.Errorf("%s: %w", meth.Name, err)
			}
			setup = append(setup, decls...)
			args = append(args, a...)
			post = append(post, name+" = "+conv)
			continue
		}
		params = append(params, "_ "+name+": "+swiftParamType(p))
		s, a := g.marshalIn(p, name)
		setup = append(setup, s...)
		args = append(args, a...)
	}
	sig := fmt.Sprintf("open func %sImpl(%s) throws", abiMethodName(meth), strings.Join(params, ", "))
	ret := ""
	if r := meth.Return; r != nil {
		decls, a, conv, err := g.marshalOut(*r, "result")
		if err != nil {
			return fmt.Errorf("%s: %w", meth.Name, err)
		}
		setup = append(setup, decls...)
		args = append(args, a...)
		ret = conv
		sig += " -> " + swiftParamType(*r)
	}
	w.Block(sig+" {", func() {
		for _, l := range setup {
			w.Line("%s", l)
		}
		w.Line("_ = try perform(as: %s.self) { pThis in", cType)
		w.Line("    try CHECKED(pThis.pointee.lpVtbl.pointee.%s(%s))", abiMethodName(meth), strings.Join(append([]string{"pThis"}, args...), ", "))
		w.Line("}")
		for _, l := range post {
			w.Line("%s", l)
		}
		if ret != "" {
			w.Line("return %s", ret)
		}
	}, "}")
	return nil
}
