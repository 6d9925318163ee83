package project

import (
	"fmt"
	"slices"
	"strings"

	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/winmd"
)

// Plan assigns namespaces to modules.
type Plan struct {
	Modules []*Module // sorted by name
	owner   map[string]*Module
	byName  map[string]*Module
}

// NewPlan distributes namespaces over the modules declared in s. Namespaces
// no declared module claims are grouped by their first segment, except the
// Windows.Foundation tree which defaults to the support module. The support
// module always exists and every other module depends on it.
func NewPlan(namespaces []string, s *settings.Settings) (*Plan, error) {
	p := &Plan{
		owner:  make(map[string]*Module, len(namespaces)),
		byName: make(map[string]*Module),
	}
	known := make(map[string]struct{}, len(namespaces))
	for _, ns := range namespaces {
		known[ns] = struct{}{}
	}
	for _, spec := range s.Modules {
		m := p.module(spec.Name)
		m.Declared = true
		for _, ns := range spec.Namespaces {
			if _, ok := known[ns]; !ok {
				return nil, &settings.ConfigError{
					Field: "module",
					Msg:   fmt.Sprintf("module %s: namespace %s is not present in the input metadata", spec.Name, ns),
				}
			}
			if prev, ok := p.owner[ns]; ok {
				return nil, &settings.ConfigError{
					Field: "module",
					Msg:   fmt.Sprintf("namespace %s assigned to both %s and %s", ns, prev.Name, spec.Name),
				}
			}
			m.addNamespace(ns)
			p.owner[ns] = m
		}
		m.AddDeps(spec.Deps...)
	}
	for _, ns := range namespaces {
		if _, ok := p.owner[ns]; ok {
			continue
		}
		root := RootModuleName(ns)
		if ns == winmd.FoundationNamespace || strings.HasPrefix(ns, winmd.FoundationNamespace+".") {
			root = s.SupportModule()
		}
		if !IsValidModuleIdent(root) {
			return nil, &settings.ConfigError{Field: "module", Msg: fmt.Sprintf("cannot derive a module name from namespace %s", ns)}
		}
		m := p.module(root)
		m.addNamespace(ns)
		p.owner[ns] = m
	}

	support := p.module(s.SupportModule())
	support.Support = true
	for _, m := range p.byName {
		if m != support {
			m.AddDeps(support.Name)
		}
	}
	for _, m := range p.byName {
		for _, dep := range m.Deps {
			if _, ok := p.byName[dep]; !ok {
				return nil, &settings.ConfigError{Field: "module", Msg: fmt.Sprintf("module %s depends on unknown module %s", m.Name, dep)}
			}
		}
	}

	p.Modules = make([]*Module, 0, len(p.byName))
	for _, m := range p.byName {
		p.Modules = append(p.Modules, m)
	}
	slices.SortFunc(p.Modules, func(a, b *Module) int { return strings.Compare(a.Name, b.Name) })
	return p, nil
}

func (p *Plan) module(name string) *Module {
	if m, ok := p.byName[name]; ok {
		return m
	}
	m := &Module{Name: name}
	p.byName[name] = m
	return m
}

// Module returns the module called name.
func (p *Plan) Module(name string) (*Module, bool) {
	m, ok := p.byName[name]
	return m, ok
}

// OwnerOf returns the module that emits ns.
func (p *Plan) OwnerOf(ns string) (*Module, bool) {
	m, ok := p.owner[ns]
	return m, ok
}

// Support returns the support module.
func (p *Plan) Support() *Module {
	for _, m := range p.Modules {
		if m.Support {
			return m
		}
	}
	return nil
}

// DeriveDeps adds a dependency from module name to the owner of every
// referenced namespace. Namespaces no module owns are ignored: they come
// from reference-only metadata.
func (p *Plan) DeriveDeps(name string, referenced []string) {
	m, ok := p.byName[name]
	if !ok {
		return
	}
	for _, ns := range referenced {
		if owner, ok := p.owner[ns]; ok {
			m.AddDeps(owner.Name)
		}
	}
}

// RootModuleName derives the default module name for a namespace.
func RootModuleName(ns string) string {
	root, _, _ := strings.Cut(ns, ".")
	return root
}
