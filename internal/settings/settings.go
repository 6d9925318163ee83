// Package settings holds the generator configuration. A Settings value is
// built once at startup, validated, and passed explicitly to every component;
// nothing mutates it afterwards.
package settings

import (
	"fmt"
	"slices"
	"strings"

	"swiftwinrt/internal/filter"
)

// DefaultSupport is the module that hosts the shared runtime glue when no
// other name is configured.
const DefaultSupport = "WindowsFoundation"

// PrefixMode selects how C ABI names carry the namespace prefix.
type PrefixMode uint8

const (
	// PrefixAlways emits __x_ABI_C-prefixed names.
	PrefixAlways PrefixMode = iota
	// PrefixNever emits __x_-prefixed names without the ABI component.
	PrefixNever
	// PrefixOptional emits prefixed names plus unprefixed #define aliases.
	PrefixOptional
)

func (m PrefixMode) String() string {
	switch m {
	case PrefixAlways:
		return "always"
	case PrefixNever:
		return "never"
	case PrefixOptional:
		return "optional"
	}
	return fmt.Sprintf("PrefixMode(%d)", uint8(m))
}

// ParsePrefixMode parses always|never|optional.
func ParsePrefixMode(s string) (PrefixMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return PrefixAlways, nil
	case "never":
		return PrefixNever, nil
	case "optional":
		return PrefixOptional, nil
	}
	return 0, &ConfigError{Field: "ns-prefix", Msg: fmt.Sprintf("unknown mode %q (want always, never or optional)", s)}
}

// ModuleSpec declares one output module.
type ModuleSpec struct {
	Name       string
	Namespaces []string
	Deps       []string
}

// ParseModuleSpec parses "Name=ns1,ns2[:dep1+dep2]".
func ParseModuleSpec(s string) (ModuleSpec, error) {
	name, rest, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return ModuleSpec{}, &ConfigError{Field: "module", Msg: fmt.Sprintf("%q: want Name=ns1,ns2[:dep1+dep2]", s)}
	}
	nsPart, depPart, _ := strings.Cut(rest, ":")
	spec := ModuleSpec{Name: name, Namespaces: splitList(nsPart, ","), Deps: splitList(depPart, "+")}
	if len(spec.Namespaces) == 0 {
		return ModuleSpec{}, &ConfigError{Field: "module", Msg: fmt.Sprintf("module %s lists no namespaces", name)}
	}
	return spec, nil
}

func (m ModuleSpec) String() string {
	s := m.Name + "=" + strings.Join(m.Namespaces, ",")
	if len(m.Deps) > 0 {
		s += ":" + strings.Join(m.Deps, "+")
	}
	return s
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Component configures the component-binding pass.
type Component struct {
	Folder         string
	Name           string
	Prefix         string
	Overwrite      bool
	Library        string
	Optimize       bool
	IgnoreVelocity bool
	Include        []string
	Exclude        []string
}

// Settings is the immutable generator configuration.
type Settings struct {
	Inputs     []string
	References []string
	Output     string
	Prefix     PrefixMode
	Include    []string
	Exclude    []string
	Support    string
	Modules    []ModuleSpec

	Verbose bool
	Log     string
	Strict  bool
	FastABI bool
	Force   bool
	Jobs    int

	// Component is nil when the component pass is disabled.
	Component *Component
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// Validate checks the settings without touching metadata.
func (s *Settings) Validate() error {
	if len(s.Inputs) == 0 {
		return &ConfigError{Field: "input", Msg: "at least one metadata input is required"}
	}
	if strings.TrimSpace(s.Output) == "" {
		return &ConfigError{Field: "output", Msg: "output folder is required"}
	}
	if s.Prefix > PrefixOptional {
		return &ConfigError{Field: "ns-prefix", Msg: s.Prefix.String()}
	}
	if s.Jobs < 0 {
		return &ConfigError{Field: "jobs", Msg: fmt.Sprintf("must not be negative, got %d", s.Jobs)}
	}
	seen := make(map[string]string)
	owner := make(map[string]string)
	for _, m := range s.Modules {
		if !isIdentifier(m.Name) {
			return &ConfigError{Field: "module", Msg: fmt.Sprintf("%q is not a valid module name", m.Name)}
		}
		if _, dup := seen[m.Name]; dup {
			return &ConfigError{Field: "module", Msg: fmt.Sprintf("module %s declared twice", m.Name)}
		}
		seen[m.Name] = m.Name
		if len(m.Namespaces) == 0 {
			return &ConfigError{Field: "module", Msg: fmt.Sprintf("module %s lists no namespaces", m.Name)}
		}
		for _, ns := range m.Namespaces {
			if prev, ok := owner[ns]; ok {
				return &ConfigError{Field: "module", Msg: fmt.Sprintf("namespace %s assigned to both %s and %s", ns, prev, m.Name)}
			}
			owner[ns] = m.Name
		}
	}
	for _, m := range s.Modules {
		for _, dep := range m.Deps {
			if _, ok := seen[dep]; !ok {
				return &ConfigError{Field: "module", Msg: fmt.Sprintf("module %s depends on undeclared module %s", m.Name, dep)}
			}
			if dep == m.Name {
				return &ConfigError{Field: "module", Msg: fmt.Sprintf("module %s depends on itself", m.Name)}
			}
		}
	}
	if s.Support != "" && !isIdentifier(s.Support) {
		return &ConfigError{Field: "support", Msg: fmt.Sprintf("%q is not a valid module name", s.Support)}
	}
	if c := s.Component; c != nil {
		if strings.TrimSpace(c.Folder) == "" {
			return &ConfigError{Field: "component-folder", Msg: "required when the component pass is enabled"}
		}
		if c.Name != "" && !isIdentifier(c.Name) {
			return &ConfigError{Field: "component-name", Msg: fmt.Sprintf("%q is not a valid identifier", c.Name)}
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SupportModule returns the configured support module name or the default.
func (s *Settings) SupportModule() string {
	if s.Support == "" {
		return DefaultSupport
	}
	return s.Support
}

// Filter returns the projection filter.
func (s *Settings) Filter() *filter.Filter { return filter.New(s.Include, s.Exclude) }

// ComponentFilter returns the component filter, or nil without a component pass.
func (s *Settings) ComponentFilter() *filter.Filter {
	if s.Component == nil {
		return nil
	}
	return filter.New(s.Component.Include, s.Component.Exclude)
}

// Fingerprint renders every setting that changes generated output in a
// stable form. Inputs are identified by content elsewhere, so paths, logging
// and scheduling knobs are left out.
func (s *Settings) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "prefix=%s\n", s.Prefix)
	fmt.Fprintf(&b, "filter=%s\n", s.Filter())
	fmt.Fprintf(&b, "support=%s\n", s.SupportModule())
	fmt.Fprintf(&b, "fastabi=%t\n", s.FastABI)
	mods := make([]string, 0, len(s.Modules))
	for _, m := range s.Modules {
		mods = append(mods, m.String())
	}
	slices.Sort(mods)
	fmt.Fprintf(&b, "modules=%s\n", strings.Join(mods, ";"))
	if c := s.Component; c != nil {
		fmt.Fprintf(&b, "component=%s|%s|%s|%t|%s|%t|%t|%s\n",
			c.Folder, c.Name, c.Prefix, c.Overwrite, c.Library, c.Optimize, c.IgnoreVelocity, s.ComponentFilter())
	}
	return b.String()
}
