// Package buildpipeline drives a generator run: it loads metadata, compiles
// modules and schedules the emission tasks of every module.
package buildpipeline

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/driver"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/observ"
	"swiftwinrt/internal/project"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
	"swiftwinrt/internal/writers"
)

// Request configures one generator run.
type Request struct {
	Settings *settings.Settings
	Log      *zap.Logger
	Progress ProgressSink
	// Timer is optional; phases are recorded when set.
	Timer *observ.Timer
}

// ModuleResult describes the output of one module.
type ModuleResult struct {
	Name    string
	Support bool
	// Cached is set when the module was up to date and nothing ran.
	Cached bool
	Files  []WriteResult
}

// Written counts the files whose content changed.
func (r ModuleResult) Written() int {
	n := 0
	for _, f := range r.Files {
		if f.Written {
			n++
		}
	}
	return n
}

// Result captures what a run produced.
type Result struct {
	// Modules in build order.
	Modules     []ModuleResult
	Component   []WriteResult
	Diagnostics *diag.Bag
	Timings     Timings
}

type pipeline struct {
	ctx   context.Context
	s     *settings.Settings
	log   *zap.Logger
	sink  ProgressSink
	timer *observ.Timer
	tc    *types.Cache
	comp  *driver.Compilation
	cache *driver.DiskCache
	out   *Output
	sem   *semaphore.Weighted
	clock stageClock
}

// Generate runs the whole generator. Modules are generated concurrently;
// within a module the Swift and C tasks share one fork-join group. The first
// failing task decides the returned error, its siblings still finish.
func Generate(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if req == nil || req.Settings == nil {
		return result, fmt.Errorf("missing generate request")
	}
	s := req.Settings
	if err := s.Validate(); err != nil {
		return result, err
	}
	log := req.Log
	if log == nil {
		log = zap.NewNop()
	}

	loadStart := time.Now()
	emit(req.Progress, "", "", StageLoad, StatusWorking, nil, 0)
	var md *metadata.Cache
	err := req.Timer.Measure("load metadata", func() error {
		var err error
		md, err = metadata.Load(ctx, s.Inputs, s.References, log)
		return err
	})
	if err != nil {
		emit(req.Progress, "", "", StageLoad, StatusError, err, time.Since(loadStart))
		return result, err
	}
	result.Timings.Set(StageLoad, time.Since(loadStart))
	emit(req.Progress, "", "", StageLoad, StatusDone, nil, time.Since(loadStart))

	compileStart := time.Now()
	emit(req.Progress, "", "", StageCompile, StatusWorking, nil, 0)
	tc := types.NewCache(md, s, log)
	var comp *driver.Compilation
	err = req.Timer.Measure("compile modules", func() error {
		var err error
		comp, err = driver.CompileModules(ctx, tc, s, log)
		return err
	})
	if err != nil {
		emit(req.Progress, "", "", StageCompile, StatusError, err, time.Since(compileStart))
		return result, err
	}
	result.Diagnostics = comp.Diagnostics
	result.Timings.Set(StageCompile, time.Since(compileStart))
	emit(req.Progress, "", "", StageCompile, StatusDone, nil, time.Since(compileStart))
	for _, m := range comp.Order {
		emit(req.Progress, m.Name, "", StageSwift, StatusQueued, nil, 0)
	}

	cache, err := driver.OpenDiskCache(s.Output)
	if err != nil {
		return result, fmt.Errorf("open cache: %w", err)
	}
	if s.Force {
		if err := cache.DropAll(); err != nil {
			log.Warn("cache reset failed", zap.Error(err))
		}
	}
	jobs := s.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	p := &pipeline{
		ctx:   ctx,
		s:     s,
		log:   log,
		sink:  req.Progress,
		timer: req.Timer,
		tc:    tc,
		comp:  comp,
		cache: cache,
		out:   NewOutput(s.Output, true),
		sem:   semaphore.NewWeighted(int64(jobs)),
	}

	// координаторы модулей не держат слот семафора, иначе вложенные задачи
	// могли бы ждать сами себя
	result.Modules = make([]ModuleResult, len(comp.Order))
	modules := NewTaskGroup(ctx, nil)
	for i, desc := range comp.Order {
		modules.Go(func() error {
			r, err := p.module(desc)
			result.Modules[i] = r
			return err
		})
	}
	err = modules.Wait()
	p.clock.apply(&result.Timings)
	if err != nil {
		return result, err
	}

	if s.Component != nil {
		start := time.Now()
		files, err := p.component(md)
		result.Component = files
		result.Timings.Set(StageComponent, time.Since(start))
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// module generates one module unless its digest shows it is up to date.
func (p *pipeline) module(desc *project.Module) (ModuleResult, error) {
	r := ModuleResult{Name: desc.Name, Support: desc.Support}
	start := time.Now()
	if !p.s.Force {
		fresh, err := p.cache.UpToDate(desc.Digest, p.s.Output)
		if err != nil {
			p.log.Warn("cache lookup failed", zap.String("module", desc.Name), zap.Error(err))
		}
		if fresh {
			r.Cached = true
			p.log.Debug("module up to date", zap.String("module", desc.Name), zap.String("digest", desc.Digest.Hex()))
			emit(p.sink, desc.Name, "", StageSwift, StatusCached, nil, time.Since(start))
			return r, nil
		}
	}

	phase := p.timer.Begin("module " + desc.Name)
	m := &writers.Module{
		Types:    p.tc,
		Settings: p.s,
		Desc:     desc,
		Members:  p.comp.Members[desc.Name],
		Deps:     p.orderedDeps(desc),
	}
	var files fileLog
	tg := NewTaskGroup(p.ctx, p.sem)

	p.task(tg, m, &files, StageSwift, "generics", func() ([]writers.File, error) {
		f, err := writers.GenericsSwift(m)
		return []writers.File{f}, err
	})
	if desc.Support {
		p.task(tg, m, &files, StageSwift, "support", func() ([]writers.File, error) {
			return writers.SupportFiles(m)
		})
	}
	for _, ns := range m.Members.Namespaces {
		p.task(tg, m, &files, StageSwift, ns.Name, func() ([]writers.File, error) {
			return writers.NamespaceSwift(m, ns)
		})
		p.task(tg, m, &files, StageC, ns.Name, func() ([]writers.File, error) {
			f, err := writers.NamespaceHeader(m, ns)
			return []writers.File{f}, err
		})
	}
	p.task(tg, m, &files, StageSwift, "manifest", func() ([]writers.File, error) {
		return writers.Manifests(m)
	})
	p.task(tg, m, &files, StageC, "generics", func() ([]writers.File, error) {
		f, err := writers.GenericsHeader(m)
		return []writers.File{f}, err
	})
	p.task(tg, m, &files, StageC, "umbrella", func() ([]writers.File, error) {
		return writers.UmbrellaHeader(m), nil
	})

	err := tg.Wait()
	r.Files = files.sorted()
	if err != nil {
		p.timer.End(phase, "failed")
		emit(p.sink, desc.Name, "", StageSwift, StatusError, err, time.Since(start))
		return r, fmt.Errorf("module %s: %w", desc.Name, err)
	}
	p.timer.End(phase, fmt.Sprintf("%d files, %d written", len(r.Files), r.Written()))

	payload := &driver.DiskPayload{
		Module:    desc.Name,
		Digest:    desc.Digest,
		Files:     make([]driver.CachedFile, len(r.Files)),
		Generated: time.Now(),
	}
	for i, f := range r.Files {
		payload.Files[i] = driver.CachedFile{Path: f.Path, Hash: f.Hash}
	}
	if err := p.cache.Put(desc.Digest, payload); err != nil {
		p.log.Warn("cache store failed", zap.String("module", desc.Name), zap.Error(err))
	}
	p.log.Info("module generated",
		zap.String("module", desc.Name),
		zap.Int("files", len(r.Files)),
		zap.Int("written", r.Written()),
		zap.Duration("elapsed", time.Since(start)))
	emit(p.sink, desc.Name, "", StageSwift, StatusDone, nil, time.Since(start))
	return r, nil
}

// task schedules one emission unit and writes what it renders.
func (p *pipeline) task(tg *TaskGroup, m *writers.Module, log *fileLog, stage Stage, name string, render func() ([]writers.File, error)) {
	emit(p.sink, m.Name(), name, stage, StatusQueued, nil, 0)
	tg.Go(func() error {
		start := time.Now()
		emit(p.sink, m.Name(), name, stage, StatusWorking, nil, 0)
		err := p.runTask(log, render)
		end := time.Now()
		p.clock.span(stage, start, end)
		if err != nil {
			err = fmt.Errorf("%s %s: %w", stage, name, err)
			emit(p.sink, m.Name(), name, stage, StatusError, err, end.Sub(start))
			return err
		}
		emit(p.sink, m.Name(), name, stage, StatusDone, nil, end.Sub(start))
		return nil
	})
}

func (p *pipeline) runTask(log *fileLog, render func() ([]writers.File, error)) error {
	files, err := render()
	if err != nil {
		return err
	}
	for _, f := range files {
		res, err := p.out.Write(f)
		if err != nil {
			return err
		}
		log.record(res)
	}
	return nil
}

// orderedDeps lists desc's dependencies in build order.
func (p *pipeline) orderedDeps(desc *project.Module) []string {
	deps := make([]string, 0, len(desc.Deps))
	for _, m := range p.comp.Order {
		if slices.Contains(desc.Deps, m.Name) {
			deps = append(deps, m.Name)
		}
	}
	return deps
}

// ComponentClasses selects the runtime classes the component implements:
// classes of input namespaces that pass the component filter. Classes
// staged as AlwaysDisabled are left out unless velocity is ignored.
func ComponentClasses(md *metadata.Cache, comp *driver.Compilation, s *settings.Settings) ([]*types.Class, error) {
	if s.Component == nil {
		return nil, nil
	}
	f := s.ComponentFilter()
	var classes []*types.Class
	for _, desc := range comp.Order {
		for _, ns := range comp.Members[desc.Name].Namespaces {
			for _, cls := range ns.Classes {
				if md.IsReference(cls.Def()) || !f.Includes(cls.FullName()) {
					continue
				}
				if !s.Component.IgnoreVelocity {
					disabled, err := metadata.IsAlwaysDisabled(cls.Def())
					if err != nil {
						return nil, err
					}
					if disabled {
						continue
					}
				}
				classes = append(classes, cls)
			}
		}
	}
	slices.SortFunc(classes, func(a, b *types.Class) int {
		return strings.Compare(a.FullName(), b.FullName())
	})
	return classes, nil
}

func (p *pipeline) component(md *metadata.Cache) ([]WriteResult, error) {
	c := p.s.Component
	name := writers.ComponentName(c)
	start := time.Now()
	emit(p.sink, "", name, StageComponent, StatusWorking, nil, 0)
	classes, err := ComponentClasses(md, p.comp, p.s)
	if err != nil {
		emit(p.sink, "", name, StageComponent, StatusError, err, time.Since(start))
		return nil, fmt.Errorf("component: %w", err)
	}
	out := NewOutput(c.Folder, c.Overwrite)
	var log fileLog
	for _, f := range writers.ComponentFiles(c, classes) {
		res, err := out.Write(f)
		if err != nil {
			emit(p.sink, "", name, StageComponent, StatusError, err, time.Since(start))
			return log.sorted(), fmt.Errorf("component: %w", err)
		}
		log.record(res)
	}
	p.log.Info("component generated", zap.String("name", name), zap.Int("classes", len(classes)))
	emit(p.sink, "", name, StageComponent, StatusDone, nil, time.Since(start))
	return log.sorted(), nil
}

// stageClock tracks the wall span of stages whose tasks overlap.
type stageClock struct {
	mu    sync.Mutex
	first map[Stage]time.Time
	last  map[Stage]time.Time
}

func (c *stageClock) span(stage Stage, start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.first == nil {
		c.first = make(map[Stage]time.Time)
		c.last = make(map[Stage]time.Time)
	}
	if f, ok := c.first[stage]; !ok || start.Before(f) {
		c.first[stage] = start
	}
	if end.After(c.last[stage]) {
		c.last[stage] = end
	}
}

func (c *stageClock) apply(t *Timings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for stage, first := range c.first {
		t.Set(stage, c.last[stage].Sub(first))
	}
}
