// Package writers renders the Swift projection, the C ABI headers and the
// build manifests of one module. Writers are pure: they read the compiled
// module and return files; the pipeline decides where and whether to write.
package writers

import (
	"fmt"
	"path"

	"swiftwinrt/internal/driver"
	"swiftwinrt/internal/project"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
)

// File is one generated output. Path is slash-separated and relative to the
// output root of its pass.
type File struct {
	Path    string
	Content []byte
	// Preserve marks files a user is expected to edit; they are written
	// only when absent unless overwriting is requested.
	Preserve bool
}

// Module is the read-only input shared by all writers of one module.
type Module struct {
	Types    *types.Cache
	Settings *settings.Settings
	Desc     *project.Module
	Members  *driver.Members
	// Deps are the module's dependencies in build order.
	Deps []string
}

// Name returns the module name.
func (m *Module) Name() string { return m.Desc.Name }

// CModule is the name of the C target that carries the module's headers.
func (m *Module) CModule() string { return "C" + m.Desc.Name }

// SwiftDir is the folder holding the module's Swift sources.
func (m *Module) SwiftDir() string { return path.Join(m.Desc.Name, "Sources", m.Desc.Name) }

// IncludeDir is the folder holding the module's C headers.
func (m *Module) IncludeDir() string { return path.Join("C", m.Desc.Name, "include") }

func (m *Module) prefix() settings.PrefixMode { return m.Types.Prefix() }

const banner = "WARNING: generated by swiftwinrt, do not edit."

// requireGenerics checks that every closed instantiation ns refers to is in
// the module's frozen generic set, so no emitted reference names a generic
// that the generics files never define.
func requireGenerics(m *Module, ns *driver.NamespaceOutput) error {
	seen := make(map[*types.GenericInst]struct{})
	var check func(t types.Type) error
	check = func(t types.Type) error {
		inst, ok := t.(*types.GenericInst)
		if !ok || inst.IsOpen() {
			return nil
		}
		if _, dup := seen[inst]; dup {
			return nil
		}
		seen[inst] = struct{}{}
		if _, err := m.Members.Generics.Require(inst); err != nil {
			return err
		}
		for _, arg := range inst.Args {
			if err := check(arg); err != nil {
				return err
			}
		}
		return nil
	}
	checkMethods := func(owner types.Type, methods []*types.Method) error {
		for _, meth := range methods {
			for _, t := range meth.Types() {
				if err := check(t); err != nil {
					return fmt.Errorf("%s.%s: %w", owner.FullName(), meth.Name, err)
				}
			}
		}
		return nil
	}
	checkAll := func(owner types.Type, ts []types.Type) error {
		for _, t := range ts {
			if err := check(t); err != nil {
				return fmt.Errorf("%s: %w", owner.FullName(), err)
			}
		}
		return nil
	}

	for _, s := range ns.Structs {
		for _, f := range s.Fields {
			if err := check(f.Type); err != nil {
				return fmt.Errorf("%s.%s: %w", s.FullName(), f.Name, err)
			}
		}
	}
	for _, i := range ns.Interfaces {
		if i.IsGeneric() {
			continue
		}
		if err := checkMethods(i, i.Methods); err != nil {
			return err
		}
		if err := checkAll(i, i.Requires); err != nil {
			return err
		}
	}
	for _, d := range ns.Delegates {
		if d.IsGeneric() || d.Invoke == nil {
			continue
		}
		if err := checkMethods(d, []*types.Method{d.Invoke}); err != nil {
			return err
		}
	}
	for _, c := range ns.Classes {
		for _, list := range [][]types.Type{c.Interfaces, c.Statics, c.Factories, c.Composable} {
			if err := checkAll(c, list); err != nil {
				return err
			}
		}
	}
	return nil
}
