package buildpipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/testkit"
	"swiftwinrt/internal/winmd"
	"swiftwinrt/internal/writers"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func (s *recordingSink) count(status Status, withTask bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Status == status && (e.Task != "") == withTask {
			n++
		}
	}
	return n
}

func writeFixture(t *testing.T, extra func(*winmd.Builder)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Test.winmd")
	require.NoError(t, testkit.Metadata(extra).Save(path))
	return path
}

func moduleNamed(t *testing.T, res Result, name string) ModuleResult {
	t.Helper()
	for _, m := range res.Modules {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no module %s", name)
	return ModuleResult{}
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateWritesEveryModule(t *testing.T) {
	out := t.TempDir()
	s := &settings.Settings{Inputs: []string{writeFixture(t, nil)}, Output: out, Jobs: 2}
	sink := &recordingSink{}
	res, err := Generate(context.Background(), &Request{Settings: s, Progress: sink})
	require.NoError(t, err)

	names := make([]string, len(res.Modules))
	for i, m := range res.Modules {
		names[i] = m.Name
	}
	require.Equal(t, []string{settings.DefaultSupport, "Test"}, names, "dependencies come first")

	test := moduleNamed(t, res, "Test")
	require.False(t, test.Cached)
	for _, rel := range []string{
		"Test/Package.swift",
		"Test/CMakeLists.txt",
		"Test/Sources/Test/Test.Shapes.swift",
		"Test/Sources/Test/Test.Shapes+Impl.swift",
		"Test/Sources/Test/Test.Shapes+ABI.swift",
		"Test/Sources/Test/Test+Generics.swift",
		"C/Test/include/Test.Shapes.h",
		"C/Test/include/Test+Generics.h",
		"C/Test/include/Test.h",
	} {
		require.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)))
	}
	require.Equal(t, len(test.Files), test.Written())
	require.True(t, slices.IsSortedFunc(test.Files, func(a, b WriteResult) int { return strings.Compare(a.Path, b.Path) }))

	support := moduleNamed(t, res, settings.DefaultSupport)
	require.True(t, support.Support)
	require.Contains(t, readOutput(t, out, "WindowsFoundation/Sources/WindowsFoundation/HString.swift"), "import CWindowsFoundation")

	require.Equal(t, sink.count(StatusQueued, true), sink.count(StatusDone, true), "every queued task finishes")
	require.Zero(t, sink.count(StatusError, true))
	require.True(t, res.Timings.Has(StageLoad))
	require.True(t, res.Timings.Has(StageSwift))
	require.True(t, res.Timings.Has(StageC))
}

func TestGenerateSkipsUpToDateModules(t *testing.T) {
	out := t.TempDir()
	s := &settings.Settings{Inputs: []string{writeFixture(t, nil)}, Output: out}
	_, err := Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)

	res, err := Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	for _, m := range res.Modules {
		require.True(t, m.Cached, m.Name)
	}

	// an edited output invalidates its module only
	edited := filepath.Join(out, "Test", "Package.swift")
	require.NoError(t, os.WriteFile(edited, []byte("// edited\n"), 0o644))
	res, err = Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	require.False(t, moduleNamed(t, res, "Test").Cached)
	require.True(t, moduleNamed(t, res, settings.DefaultSupport).Cached)
	require.Equal(t, 1, moduleNamed(t, res, "Test").Written(), "only the edited file is rewritten")

	forced := *s
	forced.Force = true
	res, err = Generate(context.Background(), &Request{Settings: &forced})
	require.NoError(t, err)
	for _, m := range res.Modules {
		require.False(t, m.Cached, m.Name)
		require.Zero(t, m.Written(), "unchanged content is not rewritten")
	}
}

func TestGenerateRejectsBadSettings(t *testing.T) {
	_, err := Generate(context.Background(), &Request{Settings: &settings.Settings{Output: t.TempDir()}})
	var cfg *settings.ConfigError
	require.ErrorAs(t, err, &cfg)

	s := &settings.Settings{
		Inputs:  []string{writeFixture(t, nil)},
		Output:  t.TempDir(),
		Modules: []settings.ModuleSpec{{Name: "Nowhere", Namespaces: []string{"No.Such.Namespace"}}},
	}
	_, err = Generate(context.Background(), &Request{Settings: s})
	require.Error(t, err)
	require.Contains(t, err.Error(), "No.Such.Namespace")
}

func TestGenerateComponentKeepsEditedStubs(t *testing.T) {
	out := t.TempDir()
	folder := filepath.Join(t.TempDir(), "component")
	s := &settings.Settings{
		Inputs: []string{writeFixture(t, nil)},
		Output: out,
		Component: &settings.Component{
			Folder:  folder,
			Include: []string{testkit.ShapesNS},
		},
	}
	res, err := Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	require.True(t, res.Timings.Has(StageComponent))

	reg := readOutput(t, folder, writers.DefaultComponentName+".swift")
	require.Contains(t, reg, `"Test.Shapes.Shape"`)
	require.NotContains(t, reg, `"Test.Widgets.Widget"`)

	stub := filepath.Join(folder, "Shape.swift")
	require.NoError(t, os.WriteFile(stub, []byte("// mine\n"), 0o644))
	res, err = Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	require.Equal(t, "// mine\n", readOutput(t, folder, "Shape.swift"))
	for _, f := range res.Component {
		require.Equal(t, f.Path != writers.DefaultComponentName+".swift", f.Kept, f.Path)
	}

	s.Component.Overwrite = true
	_, err = Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	require.NotEqual(t, "// mine\n", readOutput(t, folder, "Shape.swift"))
}

func TestComponentClassesHonourVelocity(t *testing.T) {
	staged := func(b *winmd.Builder) {
		iface := b.Interface(testkit.ShapesNS, "IGadget", "0f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0")
		iface.Method("Ping", winmd.MethodSig{})
		iface.ExclusiveTo(testkit.ShapesNS + ".Gadget")
		cls := b.Class(testkit.ShapesNS, "Gadget")
		cls.Attr(winmd.MetadataNamespace, "FeatureAttribute", winmd.IntArg(0))
		cls.Implements(iface.Ref()).Default()
	}
	s := &settings.Settings{
		Inputs:    []string{writeFixture(t, staged)},
		Output:    t.TempDir(),
		Component: &settings.Component{Folder: filepath.Join(t.TempDir(), "c")},
	}
	res, err := Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	for _, f := range res.Component {
		require.NotEqual(t, "Gadget.swift", f.Path)
	}

	s.Component.IgnoreVelocity = true
	s.Force = true
	res, err = Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	found := false
	for _, f := range res.Component {
		found = found || f.Path == "Gadget.swift"
	}
	require.True(t, found, "ignored velocity keeps staged classes")
}

func TestGenerateSkipsTypesUsingStaticClasses(t *testing.T) {
	user := func(b *winmd.Builder) {
		b.Interface(testkit.ShapesNS, "IUser", "1c2d3e4f-5061-4728-93a4-b5c6d7e8f90a").
			Method("Use", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ClassOf(b.Ref(testkit.ShapesNS, "Helpers"))}}, "h")
	}
	out := t.TempDir()
	s := &settings.Settings{Inputs: []string{writeFixture(t, user)}, Output: out}
	res, err := Generate(context.Background(), &Request{Settings: s})
	require.NoError(t, err)
	require.Equal(t, 1, res.Diagnostics.Len())
	require.NotContains(t, readOutput(t, out, "C/Test/include/Test.Shapes.h"), "IUser")

	strict := *s
	strict.Strict = true
	strict.Force = true
	_, err = Generate(context.Background(), &Request{Settings: &strict})
	require.Error(t, err)
}
