package driver

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/filter"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/testkit"
	"swiftwinrt/internal/types"
	"swiftwinrt/internal/winmd"
)

func newTypes(t *testing.T, db *winmd.Database, s *settings.Settings) *types.Cache {
	t.Helper()
	md, err := metadata.New([]*winmd.Database{db}, nil, nil)
	require.NoError(t, err)
	return types.NewCache(md, s, nil)
}

func mangled(m *Members) []string {
	var out []string
	for _, e := range m.Generics.Entries() {
		out = append(out, e.MangledName())
	}
	return out
}

func TestCompileSharesVectorOfStringAcrossNamespaces(t *testing.T) {
	s := &settings.Settings{}
	tc := newTypes(t, testkit.Metadata(nil), s)
	m, err := CompileNamespaces(context.Background(), tc, s, "Test",
		[]string{testkit.ShapesNS, testkit.WidgetsNS}, s.Filter())
	require.NoError(t, err)

	require.Equal(t, []string{
		"__FIIterable_1_HSTRING",
		"__FIIterator_1_HSTRING",
		"__FIVectorView_1_HSTRING",
		"__FIVector_1_HSTRING",
	}, mangled(m))
	for _, e := range m.Generics.Entries() {
		require.Equal(t, []string{testkit.ShapesNS, testkit.WidgetsNS}, e.Namespaces, e.MangledName())
	}
	require.Equal(t, []string{testkit.HiddenNS, testkit.CollectionsNS}, m.References)
	require.Zero(t, m.Diagnostics.Len())

	shapes, ok := m.Namespace(testkit.ShapesNS)
	require.True(t, ok)
	require.Len(t, shapes.Structs, 1)
	require.Len(t, shapes.Enums, 1)
	require.Len(t, shapes.Delegates, 1)
	require.Len(t, shapes.Interfaces, 1)
	require.Len(t, shapes.Classes, 2)
	require.Equal(t, 6, shapes.Len())
}

func TestCompileIsIdempotent(t *testing.T) {
	s := &settings.Settings{}
	tc := newTypes(t, testkit.Metadata(nil), s)
	namespaces := []string{testkit.ShapesNS, testkit.WidgetsNS, testkit.HiddenNS}
	first, err := CompileNamespaces(context.Background(), tc, s, "Test", namespaces, s.Filter())
	require.NoError(t, err)
	second, err := CompileNamespaces(context.Background(), tc, s, "Test", namespaces, s.Filter())
	require.NoError(t, err)
	require.Equal(t, mangled(first), mangled(second))
	for i := range first.Namespaces {
		require.Equal(t, first.Namespaces[i].Len(), second.Namespaces[i].Len())
	}
	// разные множества, но одинаковые экземпляры из общего кэша типов
	require.NotSame(t, first.Generics, second.Generics)
	require.Same(t, first.Generics.Entries()[0].Inst, second.Generics.Entries()[0].Inst)
}

func TestCompileReportsFilteredReference(t *testing.T) {
	s := &settings.Settings{Exclude: []string{testkit.HiddenNS}}
	tc := newTypes(t, testkit.Metadata(nil), s)
	m, err := CompileNamespaces(context.Background(), tc, s, "Test", []string{testkit.WidgetsNS}, s.Filter())
	require.NoError(t, err)

	require.Equal(t, 1, m.Diagnostics.Len())
	d := m.Diagnostics.Items()[0]
	require.Equal(t, diag.MetaFilteredReference, d.Code)
	require.Equal(t, testkit.WidgetsNS+".IPeek", d.Primary.Type)
	require.Equal(t, "Peek", d.Primary.Member)

	widgets, _ := m.Namespace(testkit.WidgetsNS)
	require.Equal(t, []string{testkit.WidgetsNS + ".IPeek"}, widgets.Skipped)
	require.Len(t, widgets.Interfaces, 1)
	require.Equal(t, "IWidget", widgets.Interfaces[0].Name())

	strict := &settings.Settings{Exclude: []string{testkit.HiddenNS}, Strict: true}
	_, err = CompileNamespaces(context.Background(), tc, strict, "Test", []string{testkit.WidgetsNS}, strict.Filter())
	var fe *FilteredReferenceError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, testkit.HiddenNS+".Secret", fe.Ref)
}

func TestCompileGenericDefinitionsAreExemptFromFilter(t *testing.T) {
	s := &settings.Settings{Include: []string{testkit.ShapesNS}}
	tc := newTypes(t, testkit.Metadata(nil), s)
	m, err := CompileNamespaces(context.Background(), tc, s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.NoError(t, err)
	require.Zero(t, m.Diagnostics.Len())
	require.Contains(t, mangled(m), "__FIVector_1_HSTRING")
}

func TestCompileEmptyAndUnknownNamespaces(t *testing.T) {
	s := &settings.Settings{Exclude: []string{testkit.ShapesNS}}
	tc := newTypes(t, testkit.Metadata(nil), s)
	var ce *metadata.ConfigError

	_, err := CompileNamespaces(context.Background(), tc, s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.ErrorAs(t, err, &ce)
	require.Equal(t, testkit.ShapesNS, ce.Namespace)

	_, err = CompileNamespaces(context.Background(), tc, s, "Test", []string{"No.Such"}, filter.New(nil, nil))
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "No.Such", ce.Namespace)
}

func TestCompileIsolatesBrokenTypes(t *testing.T) {
	db := testkit.Metadata(func(b *winmd.Builder) {
		b.Struct(testkit.ShapesNS, "Broken").Field("Gone", winmd.ValueOf(b.Ref("Test.Missing", "Gone")))
	})
	s := &settings.Settings{}
	tc := newTypes(t, db, s)
	m, err := CompileNamespaces(context.Background(), tc, s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.NoError(t, err)

	shapes, _ := m.Namespace(testkit.ShapesNS)
	require.Equal(t, []string{testkit.ShapesNS + ".Broken"}, shapes.Skipped)
	require.Len(t, shapes.Structs, 1)
	require.Equal(t, 1, m.Diagnostics.Len())
	require.Equal(t, diag.MetaDanglingRef, m.Diagnostics.Items()[0].Code)

	strict := &settings.Settings{Strict: true}
	_, err = CompileNamespaces(context.Background(), newTypes(t, db, strict), strict, "Test", []string{testkit.ShapesNS}, strict.Filter())
	var re *metadata.ResolutionError
	require.ErrorAs(t, err, &re)
}

func TestCompileReportsMissingDefaultInterface(t *testing.T) {
	db := testkit.Metadata(func(b *winmd.Builder) {
		iface := b.Interface(testkit.ShapesNS, "IOrphan", "0b1c2d3e-4f50-4617-8293-a4b5c6d7e8f9")
		b.Class(testkit.ShapesNS, "Orphan").Implements(iface.Ref())
	})
	s := &settings.Settings{}
	m, err := CompileNamespaces(context.Background(), newTypes(t, db, s), s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.NoError(t, err)
	require.Equal(t, 1, m.Diagnostics.Len())
	d := m.Diagnostics.Items()[0]
	require.Equal(t, diag.MetaMissingDefaultInterface, d.Code)
	require.Equal(t, testkit.ShapesNS+".Orphan", d.Primary.Type)
}

func TestCompileModulesPlansAndOrders(t *testing.T) {
	s := &settings.Settings{}
	db := testkit.Metadata(nil)
	c, err := CompileModules(context.Background(), newTypes(t, db, s), s, nil)
	require.NoError(t, err)

	var order []string
	for _, m := range c.Order {
		order = append(order, m.Name)
		require.False(t, m.Digest.IsZero(), m.Name)
	}
	require.Equal(t, []string{settings.DefaultSupport, "Test"}, order)
	test, _ := c.Plan.Module("Test")
	require.Equal(t, []string{testkit.HiddenNS, testkit.ShapesNS, testkit.WidgetsNS}, test.Namespaces)
	require.Equal(t, []string{settings.DefaultSupport}, test.Deps)
	require.Empty(t, c.Members[settings.DefaultSupport].Generics.Entries())
	require.Len(t, c.Members["Test"].Generics.Entries(), 4)

	again, err := CompileModules(context.Background(), newTypes(t, db, s), s, nil)
	require.NoError(t, err)
	require.Equal(t, test.Digest, again.Order[1].Digest)

	other := &settings.Settings{Prefix: settings.PrefixOptional}
	changed, err := CompileModules(context.Background(), newTypes(t, db, other), other, nil)
	require.NoError(t, err)
	require.NotEqual(t, test.Digest, changed.Order[1].Digest)
}

func TestCompileModulesDerivesDependencies(t *testing.T) {
	s := &settings.Settings{Modules: []settings.ModuleSpec{
		{Name: "Shapes", Namespaces: []string{testkit.ShapesNS}},
		{Name: "Widgets", Namespaces: []string{testkit.WidgetsNS, testkit.HiddenNS}},
	}}
	c, err := CompileModules(context.Background(), newTypes(t, testkit.Metadata(nil), s), s, nil)
	require.NoError(t, err)
	widgets, _ := c.Plan.Module("Widgets")
	require.Equal(t, []string{"Shapes", settings.DefaultSupport}, widgets.Deps)

	var order []string
	for _, m := range c.Order {
		order = append(order, m.Name)
	}
	require.Less(t, slices.Index(order, "Shapes"), slices.Index(order, "Widgets"))
	require.Less(t, slices.Index(order, settings.DefaultSupport), slices.Index(order, "Shapes"))
}

func TestCompileModulesRejectsCycles(t *testing.T) {
	db := testkit.Metadata(func(b *winmd.Builder) {
		// Test.Shapes -> Test.Widgets closes the loop with Widgets -> Shapes.
		b.Struct(testkit.ShapesNS, "Holder").Field("Label", winmd.ValueOf(b.Ref(testkit.WidgetsNS, "Tag")))
		b.Struct(testkit.WidgetsNS, "Tag").Field("Id", winmd.Prim(winmd.ElemI4))
	})
	s := &settings.Settings{Modules: []settings.ModuleSpec{
		{Name: "Shapes", Namespaces: []string{testkit.ShapesNS}},
		{Name: "Widgets", Namespaces: []string{testkit.WidgetsNS, testkit.HiddenNS}},
	}}
	_, err := CompileModules(context.Background(), newTypes(t, db, s), s, nil)
	var ce *settings.ConfigError
	require.True(t, errors.As(err, &ce), "got %v", err)
}

func diagnosticAt(t *testing.T, m *Members, typ string) diag.Diagnostic {
	t.Helper()
	for _, d := range m.Diagnostics.Items() {
		if d.Primary.Type == typ {
			return d
		}
	}
	t.Fatalf("no diagnostic at %s", typ)
	return diag.Diagnostic{}
}

func TestCompileScopesBrokenParameterClassToUser(t *testing.T) {
	db := testkit.Metadata(func(b *winmd.Builder) {
		iface := b.Interface(testkit.ShapesNS, "IOrphan", "0b1c2d3e-4f50-4617-8293-a4b5c6d7e8f9")
		orphan := b.Class(testkit.ShapesNS, "Orphan")
		orphan.Implements(iface.Ref())
		b.Interface(testkit.ShapesNS, "IUser", "1c2d3e4f-5061-4728-93a4-b5c6d7e8f90a").
			Method("Use", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ClassOf(orphan.Ref())}}, "o")
	})
	s := &settings.Settings{}
	m, err := CompileNamespaces(context.Background(), newTypes(t, db, s), s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.NoError(t, err)

	d := diagnosticAt(t, m, testkit.ShapesNS+".IUser")
	require.Equal(t, diag.MetaMissingDefaultInterface, d.Code)
	require.Equal(t, "Use", d.Primary.Member)
	require.Equal(t,
		"missing default interface: Test.Shapes.Orphan: implements 1 interface(s) but none is marked [Default]",
		d.Message)
	require.Len(t, d.Notes, 1)
	require.Equal(t, testkit.ShapesNS+".Orphan", d.Notes[0].Loc.Type)

	orphan := diagnosticAt(t, m, testkit.ShapesNS+".Orphan")
	require.Equal(t, "missing default interface: implements 1 interface(s) but none is marked [Default]", orphan.Message)
}

func TestCompileRejectsStaticClassParameter(t *testing.T) {
	db := testkit.Metadata(func(b *winmd.Builder) {
		b.Interface(testkit.ShapesNS, "IUser", "1c2d3e4f-5061-4728-93a4-b5c6d7e8f90a").
			Method("Use", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ClassOf(b.Ref(testkit.ShapesNS, "Helpers"))}}, "h")
	})
	s := &settings.Settings{}
	m, err := CompileNamespaces(context.Background(), newTypes(t, db, s), s, "Test", []string{testkit.ShapesNS}, s.Filter())
	require.NoError(t, err)

	require.Equal(t, 1, m.Diagnostics.Len())
	d := m.Diagnostics.Items()[0]
	require.Equal(t, diag.MetaInvalidType, d.Code)
	require.Equal(t, testkit.ShapesNS+".IUser", d.Primary.Type)
	require.Equal(t, "Use", d.Primary.Member)
	require.Equal(t, testkit.ShapesNS+".Helpers", d.Notes[0].Loc.Type)

	shapes, _ := m.Namespace(testkit.ShapesNS)
	require.Equal(t, []string{testkit.ShapesNS + ".IUser"}, shapes.Skipped)
	require.Len(t, shapes.Interfaces, 1)

	strict := &settings.Settings{Strict: true}
	_, err = CompileNamespaces(context.Background(), newTypes(t, db, strict), strict, "Test", []string{testkit.ShapesNS}, strict.Filter())
	var ire *InvalidReferenceError
	require.ErrorAs(t, err, &ire)
	require.Equal(t, testkit.ShapesNS+".Helpers", ire.Err.Type)
}
