package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/testkit"
	"swiftwinrt/internal/types"
	"swiftwinrt/internal/winmd"
)

func newSettingsCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	registerSettingsFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadSettingsFlagsOverrideFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, settings.DefaultFile)
	data := `input = ["a.winmd"]
output = "out"
ns-prefix = "never"
strict = true

[[module]]
name = "Shapes"
namespaces = ["Test.Shapes"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newSettingsCommand(t, "--config", path, "--output", "elsewhere", "--ns-prefix", "optional", "--jobs", "3")
	s, err := loadSettings(cmd)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.Output != "elsewhere" {
		t.Fatalf("output = %q, want flag value", s.Output)
	}
	if s.Prefix != settings.PrefixOptional {
		t.Fatalf("prefix = %s, want optional", s.Prefix)
	}
	if s.Jobs != 3 {
		t.Fatalf("jobs = %d, want 3", s.Jobs)
	}
	if !s.Strict {
		t.Fatalf("strict from file was lost")
	}
	if len(s.Inputs) != 1 || s.Inputs[0] != filepath.Join(root, "a.winmd") {
		t.Fatalf("inputs = %v, want file-relative path", s.Inputs)
	}
	if len(s.Modules) != 1 || s.Modules[0].Name != "Shapes" {
		t.Fatalf("modules = %v", s.Modules)
	}
	if s.Component != nil {
		t.Fatalf("component pass enabled without component settings")
	}
}

func TestApplyFlagsModulesAndComponent(t *testing.T) {
	cmd := newSettingsCommand(t,
		"--input", "x.winmd",
		"--output", "out",
		"--module", "Shapes=Test.Shapes:WindowsFoundation",
		"--module", "Widgets=Test.Widgets,Test.Hidden",
		"--component-folder", "comp",
		"--component-opt",
		"--component-include", "Test.Shapes",
	)
	var s settings.Settings
	if err := applyFlags(cmd, &s); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if len(s.Modules) != 2 {
		t.Fatalf("modules = %v", s.Modules)
	}
	if got := s.Modules[0].String(); got != "Shapes=Test.Shapes:WindowsFoundation" {
		t.Fatalf("first module = %q", got)
	}
	if got := s.Modules[1].Namespaces; len(got) != 2 || got[1] != "Test.Hidden" {
		t.Fatalf("second module namespaces = %v", got)
	}
	c := s.Component
	if c == nil || c.Folder != "comp" || !c.Optimize || len(c.Include) != 1 {
		t.Fatalf("component = %+v", c)
	}
}

func TestApplyFlagsRejectsBadValues(t *testing.T) {
	cmd := newSettingsCommand(t, "--ns-prefix", "sometimes")
	var s settings.Settings
	if err := applyFlags(cmd, &s); err == nil {
		t.Fatalf("expected an error for an unknown prefix mode")
	}
	cmd = newSettingsCommand(t, "--module", "=Test.Shapes")
	if err := applyFlags(cmd, &s); err == nil {
		t.Fatalf("expected an error for a module without a name")
	}
}

func TestLoadSettingsRequiresComponentFolder(t *testing.T) {
	cmd := newSettingsCommand(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := loadSettings(cmd); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
	cmd = newSettingsCommand(t, "--input", "x.winmd", "--output", "out", "--component-opt")
	if _, err := loadSettings(cmd); err == nil || !strings.Contains(err.Error(), "component-folder") {
		t.Fatalf("expected a component-folder error, got %v", err)
	}
}

func inspectCache(t *testing.T) *types.Cache {
	t.Helper()
	md, err := metadata.New([]*winmd.Database{testkit.Metadata(nil)}, nil, nil)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	return types.NewCache(md, &settings.Settings{}, nil)
}

// field returns the value printed for label, or "" when the row is absent.
func field(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), label+":")
		if ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func TestDescribeClass(t *testing.T) {
	var buf bytes.Buffer
	if err := describeType(&buf, inspectCache(t), testkit.ShapesNS+".Shape"); err != nil {
		t.Fatalf("describeType: %v", err)
	}
	out := buf.String()
	checks := map[string]string{
		"category":    "class",
		"default":     testkit.ShapesNS + ".IShape",
		"activatable": "true",
		"contract":    testkit.ShapesNS + ".ShapesContract v1",
		"iid":         testkit.IShapeGUID,
		"swift":       "TestShapes.Shape",
	}
	for label, want := range checks {
		if got := field(out, label); got != want {
			t.Fatalf("%s = %q, want %q\n%s", label, got, want, out)
		}
	}
	if !strings.HasPrefix(field(out, "signature"), "rc("+testkit.ShapesNS+".Shape;") {
		t.Fatalf("unexpected signature row\n%s", out)
	}
}

func TestDescribeStructsAndGenerics(t *testing.T) {
	tc := inspectCache(t)
	var buf bytes.Buffer
	if err := describeType(&buf, tc, testkit.ShapesNS+".Point"); err != nil {
		t.Fatalf("describeType: %v", err)
	}
	if got := field(buf.String(), "blittable"); got != "true" {
		t.Fatalf("Point blittable = %q\n%s", got, buf.String())
	}
	if got := field(buf.String(), "iid"); got != "" {
		t.Fatalf("structs have no iid, got %q", got)
	}

	buf.Reset()
	if err := describeType(&buf, tc, testkit.CollectionsNS+".IVector`1"); err != nil {
		t.Fatalf("describeType: %v", err)
	}
	if field(buf.String(), "generic") == "" || field(buf.String(), "signature") != "" {
		t.Fatalf("open generic printed a signature\n%s", buf.String())
	}

	if err := describeType(&buf, tc, "Test.Shapes.Nope"); err == nil {
		t.Fatalf("expected an error for an unknown type")
	}
}
