package driver

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/project"
	"swiftwinrt/internal/project/dag"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
)

// Compilation is the planned and compiled set of modules.
type Compilation struct {
	Plan *project.Plan
	// Order lists modules after their dependencies; Batches groups modules
	// that do not depend on each other.
	Order   []*project.Module
	Batches [][]*project.Module
	Members map[string]*Members
	// Diagnostics merges every module's diagnostics, sorted.
	Diagnostics *diag.Bag
}

// CompileModules plans modules over the projected namespaces, compiles them
// concurrently, derives cross-module dependencies from the references found
// and orders the result. Module digests are filled in.
func CompileModules(ctx context.Context, tc *types.Cache, s *settings.Settings, log *zap.Logger) (*Compilation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	md := tc.Metadata()
	f := s.Filter()

	namespaces := ProjectedNamespaces(md, f)
	inputs := md.InputNamespaces()
	for _, spec := range s.Modules {
		for _, ns := range spec.Namespaces {
			// объявленные, но целиком отфильтрованные namespace должны дойти до
			// CompileNamespaces и упасть там с понятной ошибкой
			if _, ok := slices.BinarySearch(inputs, ns); ok && !slices.Contains(namespaces, ns) {
				namespaces = append(namespaces, ns)
			}
		}
	}
	slices.Sort(namespaces)

	plan, err := project.NewPlan(namespaces, s)
	if err != nil {
		return nil, err
	}

	members := make([]*Members, len(plan.Modules))
	jobs := s.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(plan.Modules))))
	for i, m := range plan.Modules {
		g.Go(func() error {
			res, err := CompileNamespaces(gctx, tc, s, m.Name, m.Namespaces, f)
			if err != nil {
				return fmt.Errorf("module %s: %w", m.Name, err)
			}
			members[i] = res
			log.Debug("module compiled",
				zap.String("module", m.Name),
				zap.Int("namespaces", len(m.Namespaces)),
				zap.Int("generics", len(res.Generics.Entries())),
				zap.Int("diagnostics", res.Diagnostics.Len()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Compilation{
		Plan:        plan,
		Members:     make(map[string]*Members, len(plan.Modules)),
		Diagnostics: diag.NewBag(0),
	}
	for i, m := range plan.Modules {
		c.Members[m.Name] = members[i]
		c.Diagnostics.Merge(members[i].Diagnostics)
		plan.DeriveDeps(m.Name, members[i].References)
	}

	topo, idx, err := dag.Order(plan.Modules, diag.BagReporter{Bag: c.Diagnostics})
	if err != nil {
		return nil, &settings.ConfigError{Field: "module", Msg: err.Error()}
	}
	for _, id := range topo.Order {
		m, _ := plan.Module(idx.IDToName[int(id)])
		c.Order = append(c.Order, m)
	}
	for _, batch := range topo.Batches {
		mods := make([]*project.Module, 0, len(batch))
		for _, id := range batch {
			m, _ := plan.Module(idx.IDToName[int(id)])
			mods = append(mods, m)
		}
		c.Batches = append(c.Batches, mods)
	}
	ComputeModuleDigests(c.Order, md.Databases(), s)
	c.Diagnostics.Sort()
	return c, nil
}
