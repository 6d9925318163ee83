package writers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"swiftwinrt/internal/driver"
	"swiftwinrt/internal/generics"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/testkit"
	"swiftwinrt/internal/types"
	"swiftwinrt/internal/winmd"
)

func compileModule(t *testing.T, s *settings.Settings, name string, extra func(*winmd.Builder)) *Module {
	t.Helper()
	md, err := metadata.New([]*winmd.Database{testkit.Metadata(extra)}, nil, nil)
	require.NoError(t, err)
	tc := types.NewCache(md, s, nil)
	comp, err := driver.CompileModules(context.Background(), tc, s, nil)
	require.NoError(t, err)
	desc, ok := comp.Plan.Module(name)
	require.True(t, ok, name)
	return &Module{Types: tc, Settings: s, Desc: desc, Members: comp.Members[name], Deps: desc.Deps}
}

func namespace(t *testing.T, m *Module, ns string) *driver.NamespaceOutput {
	t.Helper()
	out, ok := m.Members.Namespace(ns)
	require.True(t, ok, ns)
	return out
}

func fileByPath(t *testing.T, files []File, p string) string {
	t.Helper()
	for _, f := range files {
		if f.Path == p {
			return string(f.Content)
		}
	}
	t.Fatalf("no file %s among %d", p, len(files))
	return ""
}

func requireContainsAll(t *testing.T, src string, want ...string) {
	t.Helper()
	for _, w := range want {
		require.Contains(t, src, w)
	}
}

func TestWriterIndentsBlocks(t *testing.T) {
	w := NewWriter(Options{IndentWidth: 2})
	w.Block("a {", func() {
		w.Line("b")
		w.WriteString("c\nd\n")
	}, "}")
	w.Blank()
	w.Blank()
	w.Line("e %d", 1)
	require.Equal(t, "a {\n  b\n  c\n  d\n}\n\ne 1\n", w.String())
}

func TestLowerFirst(t *testing.T) {
	cases := map[string]string{
		"GetNames":  "getNames",
		"IPAddress": "ipAddress",
		"UI":        "ui",
		"x":         "x",
		"Origin":    "origin",
	}
	for in, want := range cases {
		if got := lowerFirst(in); got != want {
			t.Fatalf("lowerFirst(%q) = %q, want %q", in, got, want)
		}
	}
	if got := memberName("Default"); got != "`default`" {
		t.Fatalf("keyword not escaped: %s", got)
	}
}

func TestNamespaceHeader(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	f, err := NamespaceHeader(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	require.Equal(t, "C/Test/include/Test.Shapes.h", f.Path)
	src := string(f.Content)

	require.NoError(t, testkit.CheckBalanced(src))
	require.NoError(t, testkit.CheckHeaderGuard(src, "SWIFTWINRT_TEST_SHAPES_H"))
	requireContainsAll(t, src,
		"#include <WinRTBase.h>",
		"typedef enum __x_ABI_CTest_CShapes_CColor",
		"__x_ABI_CTest_CShapes_CColor_Red = 0,",
		"struct __x_ABI_CTest_CShapes_CPoint\n{\n    INT32 X;\n    INT32 Y;\n};",
		"#ifndef ____FIVector_1_HSTRING_FWD_DEFINED__",
		"HRESULT (STDMETHODCALLTYPE* get_Origin)(__x_ABI_CTest_CShapes_CIShape* This, struct __x_ABI_CTest_CShapes_CPoint* result);",
		"HRESULT (STDMETHODCALLTYPE* GetNames)(__x_ABI_CTest_CShapes_CIShape* This, __FIVector_1_HSTRING** result);",
		"HRESULT (STDMETHODCALLTYPE* Invoke)(__x_ABI_CTest_CShapes_CShapeChangedHandler* This, enum __x_ABI_CTest_CShapes_CColor color);",
		"HRESULT (STDMETHODCALLTYPE* GetTrustLevel)(__x_ABI_CTest_CShapes_CIShape* This, TrustLevel* trustLevel);",
		"EXTERN_C const IID IID___x_ABI_CTest_CShapes_CIShape;",
		`RuntimeClass_Test_Shapes_Shape[] = L"Test.Shapes.Shape";`,
	)
	// delegates derive from IUnknown
	delegate := src[strings.Index(src, "typedef struct __x_ABI_CTest_CShapes_CShapeChangedHandlerVtbl"):]
	delegate = delegate[:strings.Index(delegate, "END_INTERFACE")]
	require.NotContains(t, delegate, "GetIids")
	require.NotContains(t, src, "#define __x_Test_CShapes_CPoint")
}

func TestNamespaceHeaderIncludesValueTypeNamespaces(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	f, err := NamespaceHeader(m, namespace(t, m, testkit.WidgetsNS))
	require.NoError(t, err)
	src := string(f.Content)
	requireContainsAll(t, src,
		`#include "Test.Hidden.h"`,
		`#include "Test.Shapes.h"`,
		"HRESULT (STDMETHODCALLTYPE* MoveTo)(__x_ABI_CTest_CWidgets_CIWidget* This, struct __x_ABI_CTest_CShapes_CPoint where);",
		"HRESULT (STDMETHODCALLTYPE* Peek)(__x_ABI_CTest_CWidgets_CIPeek* This, struct __x_ABI_CTest_CHidden_CSecret* result);",
	)
}

func TestNamespaceHeaderPrefixModes(t *testing.T) {
	m := compileModule(t, &settings.Settings{Prefix: settings.PrefixOptional}, "Test", nil)
	f, err := NamespaceHeader(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	require.Contains(t, string(f.Content), "#define __x_Test_CShapes_CPoint __x_ABI_CTest_CShapes_CPoint")

	m = compileModule(t, &settings.Settings{Prefix: settings.PrefixNever}, "Test", nil)
	f, err = NamespaceHeader(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	src := string(f.Content)
	require.Contains(t, src, "struct __x_Test_CShapes_CPoint")
	require.NotContains(t, src, "__x_ABI_C")
}

func TestGenericsHeaderAndUmbrella(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	f, err := GenericsHeader(m)
	require.NoError(t, err)
	require.Equal(t, "C/Test/include/Test+Generics.h", f.Path)
	src := string(f.Content)
	require.NoError(t, testkit.CheckBalanced(src))
	require.NoError(t, testkit.CheckHeaderGuard(src, "SWIFTWINRT_TEST_GENERICS_H"))
	requireContainsAll(t, src,
		"interface __FIVector_1_HSTRING\n",
		"HRESULT (STDMETHODCALLTYPE* GetAt)(__FIVector_1_HSTRING* This, UINT32 index, HSTRING* result);",
		"HRESULT (STDMETHODCALLTYPE* GetView)(__FIVector_1_HSTRING* This, __FIVectorView_1_HSTRING** result);",
		"HRESULT (STDMETHODCALLTYPE* Append)(__FIVector_1_HSTRING* This, HSTRING value);",
		"EXTERN_C const IID IID___FIIterable_1_HSTRING;",
	)
	// one definition per instantiation even though two namespaces use it
	require.Equal(t, 1, strings.Count(src, "interface __FIVector_1_HSTRING\n"))

	files := UmbrellaHeader(m)
	umbrella := fileByPath(t, files, "C/Test/include/Test.h")
	require.NoError(t, testkit.CheckHeaderGuard(umbrella, "SWIFTWINRT_TEST_H"))
	requireContainsAll(t, umbrella,
		"#include <WindowsFoundation.h>",
		`#include "Test.Shapes.h"`,
		`#include "Test+Generics.h"`,
	)
	mm := fileByPath(t, files, "C/Test/include/module.modulemap")
	require.Contains(t, mm, "module CTest {\n    umbrella header \"Test.h\"\n    export *\n}\n")
}

func TestNamespaceSwift(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	files, err := NamespaceSwift(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		require.NoError(t, testkit.CheckBalanced(string(f.Content)), f.Path)
	}

	wrapper := fileByPath(t, files, "Test/Sources/Test/Test.Shapes.swift")
	requireContainsAll(t, wrapper,
		"import CTest\nimport WindowsFoundation\n",
		"public enum TestShapes {}",
		"public typealias Color = __x_ABI_CTest_CShapes_CColor",
		"public static var red: Self { __x_ABI_CTest_CShapes_CColor_Red }",
		"public struct Point: Hashable, Codable, Sendable {",
		"public var x: Int32 = 0",
		"public init(x: Int32, y: Int32) {",
		"public typealias ShapeChangedHandler = (TestShapes.Color) -> ()",
		"/// Introduced in Test.Shapes.ShapesContract v1.",
		"class Shape: WinRTClass {",
		"public var origin: TestShapes.Point {",
		"get { try! _default.get_OriginImpl() }",
		"set { try! _default.put_OriginImpl(newValue) }",
		"public lazy var changed: Event<TestShapes.ShapeChangedHandler> = {",
		"public func getNames() throws -> (any WindowsFoundationCollections.IVector<String>)? {",
		"public func scale(_ factor: Double) throws {",
		`super.init(try! RoActivateInstance(HString("Test.Shapes.Shape")))`,
	)
	// exclusive interfaces are reachable only through their class
	require.NotContains(t, wrapper, "public protocol IShape")

	abi := fileByPath(t, files, "Test/Sources/Test/Test.Shapes+ABI.swift")
	requireContainsAll(t, abi,
		"private var IID___x_ABI_CTest_CShapes_CIShape: WindowsFoundation.IID {",
		".init(Data1: 0x8F3B4A1E, Data2: 0x0D2C, Data3: 0x4B6E, Data4: (0x9A, 0x5F, 0x1C, 0x2D, 0x3E, 0x4F, 0x5A, 0x6B))",
		"public enum __ABI_TestShapes {",
		"public class IShape: WindowsFoundation.IInspectable {",
		"open func get_OriginImpl() throws -> TestShapes.Point {",
		"var result: __x_ABI_CTest_CShapes_CPoint = .init()",
		"try CHECKED(pThis.pointee.lpVtbl.pointee.get_Origin(pThis, &result))",
		"return .from(abi: result)",
		"return __FIVector_1_HSTRINGBridge.from(abi: ComPtr(result))",
		"public class ShapeChangedHandler: WindowsFoundation.IUnknown {",
		"public static func from(swift: TestShapes.Point) -> __x_ABI_CTest_CShapes_CPoint {",
	)

	impl := fileByPath(t, files, "Test/Sources/Test/Test.Shapes+Impl.swift")
	requireContainsAll(t, impl,
		"public enum __IMPL_TestShapes {",
		"public class ShapeChangedHandlerBridge: WinRTDelegateBridge {",
		"try! _default.InvokeImpl(color)",
	)
}

func TestNamespaceSwiftProtocolsAndAnnotations(t *testing.T) {
	deprecated := func(b *winmd.Builder) {
		b.Struct(testkit.WidgetsNS, "OldSize").
			Field("Width", winmd.Prim(winmd.ElemI4)).
			Field("Label", winmd.Prim(winmd.ElemString)).
			Attr(winmd.MetadataNamespace, "DeprecatedAttribute",
				winmd.StringArg("use Size"), winmd.EnumArg(winmd.MetadataNamespace+".DeprecationType", 0), winmd.UintArg(1))
	}
	m := compileModule(t, &settings.Settings{}, "Test", deprecated)
	files, err := NamespaceSwift(m, namespace(t, m, testkit.WidgetsNS))
	require.NoError(t, err)

	wrapper := fileByPath(t, files, "Test/Sources/Test/Test.Widgets.swift")
	requireContainsAll(t, wrapper,
		"public protocol IPeek: WinRTInterface {",
		"func peek() throws -> TestHidden.Secret",
		"public typealias AnyIPeek = any IPeek",
		"@available(*, deprecated, message: \"use Size\")\n    public struct OldSize",
		`public var label: String = ""`,
	)
	abi := fileByPath(t, files, "Test/Sources/Test/Test.Widgets+ABI.swift")
	requireContainsAll(t, abi,
		"public class _ABI_OldSize {",
		"val.Label = try HString(swift.label).detach()",
		"WindowsDeleteString(val.Label)",
		"public typealias IPeekWrapper = InterfaceWrapperBase<__IMPL_TestWidgets.IPeekBridge>",
	)
	// strings make the struct non-blittable: no direct conversion
	require.NotContains(t, abi, "public static func from(swift: TestWidgets.OldSize)")
}

func TestGenericsSwift(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	f, err := GenericsSwift(m)
	require.NoError(t, err)
	require.Equal(t, "Test/Sources/Test/Test+Generics.swift", f.Path)
	src := string(f.Content)
	require.NoError(t, testkit.CheckBalanced(src))
	requireContainsAll(t, src,
		"// referenced from Test.Shapes, Test.Widgets",
		"public class __FIVector_1_HSTRINGAbi: WindowsFoundation.IInspectable {",
		"open func GetAtImpl(_ index: UInt32) throws -> String {",
		"public enum __FIVector_1_HSTRINGBridge: AbiInterfaceBridge {",
		"public typealias __FIVector_1_HSTRINGWrapper = InterfaceWrapperBase<__FIVector_1_HSTRINGBridge>",
	)
	require.Equal(t, 1, strings.Count(src, "public class __FIVector_1_HSTRINGAbi"))
}

func TestManifests(t *testing.T) {
	s := &settings.Settings{}
	m := compileModule(t, s, "Test", nil)
	files, err := Manifests(m)
	require.NoError(t, err)
	pkg := fileByPath(t, files, "Test/Package.swift")
	requireContainsAll(t, pkg,
		`name: "Test",`,
		`.package(path: "../WindowsFoundation"),`,
		`.product(name: "WindowsFoundation", package: "WindowsFoundation"),`,
		`"CTest",`,
	)
	require.NoError(t, testkit.CheckBalanced(pkg))
	cmake := fileByPath(t, files, "Test/CMakeLists.txt")
	requireContainsAll(t, cmake,
		"add_library(Test SHARED ${Test_SOURCES})",
		"target_link_libraries(Test PUBLIC WindowsFoundation)",
	)

	support := compileModule(t, s, settings.DefaultSupport, nil)
	files, err = Manifests(support)
	require.NoError(t, err)
	require.Contains(t, fileByPath(t, files, "WindowsFoundation/CMakeLists.txt"),
		"target_link_libraries(WindowsFoundation PUBLIC runtimeobject)")
}

func TestSupportFiles(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, settings.DefaultSupport, nil)
	files, err := SupportFiles(m)
	require.NoError(t, err)
	hstring := fileByPath(t, files, "WindowsFoundation/Sources/WindowsFoundation/HString.swift")
	require.Contains(t, hstring, "import CWindowsFoundation")
	require.NotContains(t, hstring, supportCModule)
	base := fileByPath(t, files, "C/WindowsFoundation/include/WinRTBase.h")
	require.NoError(t, testkit.CheckHeaderGuard(base, "SWIFTWINRT_WINRTBASE_H"))
}

func TestComponentFiles(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	shapes := namespace(t, m, testkit.ShapesNS)
	var shape *types.Class
	for _, c := range shapes.Classes {
		if c.Name() == "Shape" {
			shape = c
		}
	}
	require.NotNil(t, shape)

	c := &settings.Component{Folder: "out", Prefix: "My", Library: "Test"}
	files := ComponentFiles(c, []*types.Class{shape})
	require.Len(t, files, 2)
	reg := fileByPath(t, files, "Component.swift")
	require.NoError(t, testkit.CheckBalanced(reg))
	requireContainsAll(t, reg,
		"import Test\n",
		`@_cdecl("MyDllGetActivationFactory")`,
		`case "Test.Shapes.Shape":`,
		"private final class ShapeFactory: IActivationFactory {",
	)
	require.False(t, files[0].Preserve)
	require.True(t, files[1].Preserve)
	stub := fileByPath(t, files, "Shape.swift")
	requireContainsAll(t, stub,
		"public final class Shape: WinRTClass {",
		"public func scale(_ factor: Double) throws {",
	)

	c.Optimize = true
	c.Name = "Shapes"
	reg = fileByPath(t, ComponentFiles(c, []*types.Class{shape}), "Shapes.swift")
	requireContainsAll(t, reg,
		"private let factories: [String: () -> IActivationFactory] = [",
		`"Test.Shapes.Shape": { ShapeFactory() },`,
		"guard let make = factories[id] else { return CLASS_E_CLASSNOTAVAILABLE }",
	)
	require.NotContains(t, reg, "switch id {")
}

func fastGadget(b *winmd.Builder) {
	gadget := b.Interface(testkit.ShapesNS, "IGadget", "2d3e4f50-6172-4839-a4b5-c6d7e8f90a1b")
	gadget.Method("Ping", winmd.MethodSig{})
	gadget.ExclusiveTo(testkit.ShapesNS + ".Gadget")
	extra := b.Interface(testkit.ShapesNS, "IGadgetExtra", "3e4f5061-7283-494a-b5c6-d7e8f90a1b2c")
	extra.Method("Pong", winmd.MethodSig{})
	extra.ExclusiveTo(testkit.ShapesNS + ".Gadget")
	cls := b.Class(testkit.ShapesNS, "Gadget").Attr(winmd.MetadataNamespace, "FastAbiAttribute", winmd.UintArg(1))
	cls.Implements(gadget.Ref()).Default()
	cls.Implements(extra.Ref())
}

func gadgetVtable(t *testing.T, fastABI bool) string {
	t.Helper()
	m := compileModule(t, &settings.Settings{FastABI: fastABI}, "Test", fastGadget)
	f, err := NamespaceHeader(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	src := string(f.Content)
	start := strings.Index(src, "typedef struct __x_ABI_CTest_CShapes_CIGadgetVtbl")
	require.GreaterOrEqual(t, start, 0)
	vtbl := src[start:]
	return vtbl[:strings.Index(vtbl, "END_INTERFACE")]
}

func TestNamespaceHeaderFoldsFastABIInterfaces(t *testing.T) {
	const (
		ping = "HRESULT (STDMETHODCALLTYPE* Ping)(__x_ABI_CTest_CShapes_CIGadget* This);"
		pong = "HRESULT (STDMETHODCALLTYPE* Pong)(__x_ABI_CTest_CShapes_CIGadget* This);"
	)
	folded := gadgetVtable(t, true)
	requireContainsAll(t, folded, ping, pong)
	require.Less(t, strings.Index(folded, ping), strings.Index(folded, pong), "own methods come first")

	m := compileModule(t, &settings.Settings{FastABI: true}, "Test", fastGadget)
	f, err := NamespaceHeader(m, namespace(t, m, testkit.ShapesNS))
	require.NoError(t, err)
	require.Contains(t, string(f.Content), "/* fast ABI: default interface of Test.Shapes.Gadget */")

	plain := gadgetVtable(t, false)
	require.Contains(t, plain, ping)
	require.NotContains(t, plain, "Pong")
}

func TestNamespaceWritersRequireRecordedGenerics(t *testing.T) {
	m := compileModule(t, &settings.Settings{}, "Test", nil)
	ns := namespace(t, m, testkit.ShapesNS)

	// IShape.GetNames returns IVector<String>, which this set never saw.
	members := *m.Members
	members.Generics = generics.NewSet("Test")
	members.Generics.Freeze()
	empty := *m
	empty.Members = &members

	_, err := NamespaceHeader(&empty, ns)
	require.ErrorIs(t, err, generics.ErrFrozen)
	require.Contains(t, err.Error(), "IShape")
	_, err = NamespaceSwift(&empty, ns)
	require.ErrorIs(t, err, generics.ErrFrozen)

	_, err = NamespaceHeader(m, ns)
	require.NoError(t, err)
}
