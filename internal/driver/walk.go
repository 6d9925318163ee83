package driver

import (
	"fmt"

	"swiftwinrt/internal/filter"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/types"
)

// FilteredReferenceError reports an emitted member that refers to a type the
// projection filter excludes.
type FilteredReferenceError struct {
	Type   string
	Member string
	Ref    string
}

func (e *FilteredReferenceError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s refers to excluded type %s", e.Type, e.Ref)
	}
	return fmt.Sprintf("%s.%s refers to excluded type %s", e.Type, e.Member, e.Ref)
}

// InvalidReferenceError reports an emitted member that refers to a type
// which cannot cross the ABI, such as a static class.
type InvalidReferenceError struct {
	Type   string
	Member string
	Err    *types.InvalidTypeError
}

func (e *InvalidReferenceError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Type, e.Member, e.Err)
}

func (e *InvalidReferenceError) Unwrap() error { return e.Err }

// walker collects what one type reaches: closed generic instantiations
// (transitively through their arguments, required interfaces and methods)
// and namespaces of referenced types.
type walker struct {
	md        *metadata.Cache
	filter    *filter.Filter
	namespace string
	refs      map[string]struct{}

	owner  string
	member string
	seen   map[*types.GenericInst]struct{}
	found  []*types.GenericInst
}

func (w *walker) walkType(t types.Type) error {
	w.owner = t.FullName()
	w.member = ""
	w.seen = make(map[*types.GenericInst]struct{})
	w.found = w.found[:0]

	switch v := t.(type) {
	case *types.Struct:
		for _, f := range v.Fields {
			w.member = f.Name
			if err := w.visit(f.Type); err != nil {
				return err
			}
		}
	case *types.Enum:
	case *types.Interface:
		if err := w.methods(v.Methods); err != nil {
			return err
		}
		w.member = ""
		return w.visitAll(v.Requires)
	case *types.Delegate:
		if v.Invoke != nil {
			return w.methods([]*types.Method{v.Invoke})
		}
	case *types.Class:
		if v.Default != nil {
			if err := w.visit(v.Default); err != nil {
				return err
			}
		}
		if v.Base != nil {
			if err := w.visit(v.Base); err != nil {
				return err
			}
		}
		for _, list := range [][]types.Type{v.Interfaces, v.Statics, v.Factories, v.Composable} {
			if err := w.visitAll(list); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) methods(ms []*types.Method) error {
	for _, m := range ms {
		w.member = m.Name
		for _, t := range m.Types() {
			if err := w.visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) visitAll(ts []types.Type) error {
	for _, t := range ts {
		if err := w.visit(t); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visit(t types.Type) error {
	switch v := t.(type) {
	case nil, *types.Fundamental, *types.Mapped, *types.GenericParam:
		return nil
	case *types.GenericInst:
		return w.generic(v)
	case *types.Class:
		if v.IsStatic() {
			return &InvalidReferenceError{Type: w.owner, Member: w.member, Err: &types.InvalidTypeError{
				Type: v.FullName(), Op: "ABI parameter", Reason: "class has no default interface",
			}}
		}
	}
	if w.excluded(t) {
		return &FilteredReferenceError{Type: w.owner, Member: w.member, Ref: t.FullName()}
	}
	w.reference(t.Namespace())
	return nil
}

// generic records a closed instantiation and everything it reaches. The
// generic definition itself is exempt from filtering; its arguments are not.
func (w *walker) generic(inst *types.GenericInst) error {
	if _, ok := w.seen[inst]; ok {
		return nil
	}
	w.seen[inst] = struct{}{}
	w.reference(inst.Namespace())
	if err := w.visitAll(inst.Args); err != nil {
		return err
	}
	if inst.IsOpen() {
		return nil
	}
	w.found = append(w.found, inst)
	if err := w.visitAll(inst.Requires); err != nil {
		return err
	}
	for _, m := range inst.Methods {
		for _, t := range m.Types() {
			if err := w.visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// excluded reports a filtered-out type defined in an input container.
// Types from reference containers are projected elsewhere and always pass.
func (w *walker) excluded(t types.Type) bool {
	if w.filter.IncludesType(t.Namespace(), t.Name()) {
		return false
	}
	def, ok := types.TypeDefOf(t)
	return !ok || !w.md.IsReference(def)
}

func (w *walker) reference(ns string) {
	if ns != "" && ns != w.namespace {
		w.refs[ns] = struct{}{}
	}
}
