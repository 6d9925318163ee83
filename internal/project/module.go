package project

import (
	"slices"
	"unicode"
)

// Module is one generated Swift package: a set of namespaces and the
// modules it depends on.
type Module struct {
	Name       string
	Namespaces []string // sorted
	Deps       []string // sorted, unique, never Name itself
	// Support marks the module that hosts the shared runtime sources.
	Support bool
	// Declared is false for modules synthesised from namespace roots.
	Declared bool
	Digest   Digest
}

// Owns reports whether ns belongs to the module.
func (m *Module) Owns(ns string) bool {
	_, ok := slices.BinarySearch(m.Namespaces, ns)
	return ok
}

// AddDeps merges names into Deps, skipping the module itself.
func (m *Module) AddDeps(names ...string) {
	for _, n := range names {
		if n == "" || n == m.Name {
			continue
		}
		if i, ok := slices.BinarySearch(m.Deps, n); !ok {
			m.Deps = slices.Insert(m.Deps, i, n)
		}
	}
}

func (m *Module) addNamespace(ns string) {
	if i, ok := slices.BinarySearch(m.Namespaces, ns); !ok {
		m.Namespaces = slices.Insert(m.Namespaces, i, ns)
	}
}

// IsValidModuleIdent reports whether name can be used as a Swift module name.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
