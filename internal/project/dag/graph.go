package dag

import (
	"fmt"
	"slices"
	"strings"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/project"
)

// Graph stores edges from a dependency to its dependents, so the first
// topological batch holds modules without dependencies.
type Graph struct {
	Edges   [][]ModuleID // Edges[dep] = []dependent
	Indeg   []int        // входящие степени для Kahn (учитывает только присутствующие модули)
	Present []bool       // модуль реально объявлен (а не только упомянут в deps)
}

func BuildGraph(idx ModuleIndex, mods []*project.Module, r diag.Reporter) Graph {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	for _, m := range mods {
		if id, ok := idx.NameToID[m.Name]; ok {
			g.Present[int(id)] = true
		}
	}

	for _, m := range mods {
		fromID, ok := idx.NameToID[m.Name]
		if !ok {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(m.Deps))
		for _, dep := range m.Deps {
			depID, ok := idx.NameToID[dep]
			if !ok {
				continue
			}
			if depID == fromID {
				diag.ReportError(r, diag.CfgModuleCycle, diag.Location{Module: m.Name}, fmt.Sprintf("module %q depends on itself", m.Name))
				continue
			}
			if !g.Present[int(depID)] {
				diag.ReportError(r, diag.CfgUnknownNamespace, diag.Location{Module: m.Name}, fmt.Sprintf("module %q depends on missing module %q", m.Name, dep))
				continue
			}
			if _, dup := seen[depID]; dup {
				continue
			}
			seen[depID] = struct{}{}
			g.Edges[int(depID)] = append(g.Edges[int(depID)], fromID)
			g.Indeg[int(fromID)]++
		}
	}
	for i := range g.Edges {
		if len(g.Edges[i]) > 1 {
			slices.Sort(g.Edges[i])
		}
	}
	return g
}

func ReportCycles(idx ModuleIndex, topo *Topo, r diag.Reporter) {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := idx.Names(topo.Cycles)
	summary := strings.Join(names, " -> ")
	for _, name := range names {
		msg := fmt.Sprintf("module %q participates in a dependency cycle: %s", name, summary)
		diag.ReportError(r, diag.CfgModuleCycle, diag.Location{Module: name}, msg)
	}
}

// Order sorts modules so that every module follows its dependencies.
// A cycle is reported through r and returned as an error. Each problem is
// reported once even when a dependency is listed repeatedly.
func Order(mods []*project.Module, r diag.Reporter) (*Topo, ModuleIndex, error) {
	r = diag.NewDedupReporter(r)
	idx := BuildIndex(mods)
	g := BuildGraph(idx, mods, r)
	topo := ToposortKahn(g)
	if topo.Cyclic {
		ReportCycles(idx, topo, r)
		return topo, idx, fmt.Errorf("module dependency cycle: %s", strings.Join(idx.Names(topo.Cycles), ", "))
	}
	return topo, idx, nil
}
