package driver

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/filter"
	"swiftwinrt/internal/generics"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
)

// NamespaceOutput holds the projectable types of one namespace, each list
// sorted by name.
type NamespaceOutput struct {
	Name       string
	Enums      []*types.Enum
	Structs    []*types.Struct
	Interfaces []*types.Interface
	Delegates  []*types.Delegate
	Classes    []*types.Class
	// Skipped lists types dropped because of metadata errors.
	Skipped []string
}

// Len returns the number of emitted types.
func (o *NamespaceOutput) Len() int {
	return len(o.Enums) + len(o.Structs) + len(o.Interfaces) + len(o.Delegates) + len(o.Classes)
}

// Members is the compiled view of one module.
type Members struct {
	Module     string
	Namespaces []*NamespaceOutput // same order as requested
	// Generics is frozen by the time CompileNamespaces returns.
	Generics *generics.Set
	// References lists namespaces outside the module that emitted members
	// refer to, sorted.
	References  []string
	Diagnostics *diag.Bag
}

// Namespace returns the output for ns.
func (m *Members) Namespace(ns string) (*NamespaceOutput, bool) {
	for _, o := range m.Namespaces {
		if o.Name == ns {
			return o, true
		}
	}
	return nil, false
}

type namespaceResult struct {
	out  *NamespaceOutput
	refs map[string]struct{}
	bag  *diag.Bag
}

// CompileNamespaces walks every type of the given namespaces that passes f,
// records the closed generic instantiations they reach and freezes the
// module's generic set. Type-scoped metadata errors become diagnostics and
// drop the type, unless s.Strict is set. A namespace that is unknown or has
// no types left after filtering is a configuration error.
//
// The walk only reads tc; calling it twice yields equal results.
func CompileNamespaces(ctx context.Context, tc *types.Cache, s *settings.Settings, module string, namespaces []string, f *filter.Filter) (*Members, error) {
	set := generics.NewSet(module)
	results := make([]namespaceResult, len(namespaces))

	jobs := s.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(namespaces))))
	for i, ns := range namespaces {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := compileNamespace(tc, s, module, ns, f, set)
			if err != nil {
				return err
			}
			// каждая горутина пишет в свой слот, мьютекс не нужен
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Members{
		Module:      module,
		Namespaces:  make([]*NamespaceOutput, len(namespaces)),
		Generics:    set,
		Diagnostics: diag.NewBag(0),
	}
	refs := make(map[string]struct{})
	for i, res := range results {
		m.Namespaces[i] = res.out
		m.Diagnostics.Merge(res.bag)
		for ns := range res.refs {
			refs[ns] = struct{}{}
		}
	}
	for _, ns := range namespaces {
		delete(refs, ns)
	}
	for ns := range refs {
		m.References = append(m.References, ns)
	}
	slices.Sort(m.References)
	set.Freeze()
	m.Diagnostics.Sort()
	return m, nil
}

func compileNamespace(tc *types.Cache, s *settings.Settings, module, ns string, f *filter.Filter, rec generics.Recorder) (namespaceResult, error) {
	md := tc.Metadata()
	members, ok := md.Namespace(ns)
	if !ok {
		return namespaceResult{}, &metadata.ConfigError{Namespace: ns, Msg: "not present in any metadata input"}
	}
	res := namespaceResult{
		out:  &NamespaceOutput{Name: ns},
		refs: make(map[string]struct{}),
		bag:  diag.NewBag(0),
	}
	w := &walker{md: md, filter: f, namespace: ns, refs: res.refs}

	included := 0
	for _, def := range projectable(members) {
		if md.IsReference(def) || !f.IncludesType(ns, def.Name()) {
			continue
		}
		included++
		loc := diag.Location{Module: module, Namespace: ns, Type: def.FullName()}
		t, err := tc.TypeOf(def)
		if err == nil {
			err = w.walkType(t)
		}
		if err != nil {
			if s.Strict {
				return namespaceResult{}, err
			}
			res.bag.Add(diagnosticFor(err, loc))
			res.out.Skipped = append(res.out.Skipped, def.FullName())
			continue
		}
		for _, inst := range w.found {
			if err := rec.RecordInstantiation(inst, ns); err != nil {
				return namespaceResult{}, fmt.Errorf("%s: %w", def.FullName(), err)
			}
		}
		res.out.add(t)
	}
	if included == 0 {
		return namespaceResult{}, &metadata.ConfigError{Namespace: ns, Msg: "no types left after filtering"}
	}
	return res, nil
}

// projectable returns the members that produce code: attributes and API
// contracts are metadata-only.
func projectable(m *metadata.NamespaceMembers) []metadata.TypeDef {
	out := make([]metadata.TypeDef, 0, len(m.Enums)+len(m.Structs)+len(m.Interfaces)+len(m.Delegates)+len(m.Classes))
	out = append(out, m.Enums...)
	out = append(out, m.Structs...)
	out = append(out, m.Interfaces...)
	out = append(out, m.Delegates...)
	return append(out, m.Classes...)
}

func (o *NamespaceOutput) add(t types.Type) {
	switch v := t.(type) {
	case *types.Enum:
		o.Enums = append(o.Enums, v)
	case *types.Struct:
		o.Structs = append(o.Structs, v)
	case *types.Interface:
		o.Interfaces = append(o.Interfaces, v)
	case *types.Delegate:
		o.Delegates = append(o.Delegates, v)
	case *types.Class:
		o.Classes = append(o.Classes, v)
	}
}

// ProjectedNamespaces returns the input namespaces holding at least one
// projectable type that passes f, sorted.
func ProjectedNamespaces(md *metadata.Cache, f *filter.Filter) []string {
	var out []string
	for _, ns := range md.InputNamespaces() {
		if !f.MayInclude(ns) {
			continue
		}
		members, _ := md.Namespace(ns)
		for _, def := range projectable(members) {
			if !md.IsReference(def) && f.IncludesType(ns, def.Name()) {
				out = append(out, ns)
				break
			}
		}
	}
	return out
}
