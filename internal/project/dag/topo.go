package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is the generation order of the declared modules.
type Topo struct {
	Order   []ModuleID   // зависимости раньше зависимых
	Batches [][]ModuleID // волны без взаимных зависимостей
	Cyclic  bool
	Cycles  []ModuleID // модули, которые так и не освободились
}

// ToposortKahn peels off waves of modules whose dependencies are all in
// earlier waves. Ids inside a wave are ascending, so the result does not
// depend on declaration order.
func ToposortKahn(g Graph) *Topo {
	pending := slices.Clone(g.Indeg)
	topo := &Topo{}

	wave := readyModules(g, pending)
	for len(wave) > 0 {
		topo.Batches = append(topo.Batches, wave)
		topo.Order = append(topo.Order, wave...)
		var next []ModuleID
		for _, dep := range wave {
			for _, dependent := range g.Edges[dep] {
				if !g.Present[dependent] {
					continue
				}
				if pending[dependent]--; pending[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.Sort(next)
		wave = next
	}

	for i, present := range g.Present {
		if present && pending[i] > 0 {
			topo.Cycles = append(topo.Cycles, moduleID(i))
		}
	}
	topo.Cyclic = len(topo.Cycles) > 0
	return topo
}

func readyModules(g Graph, pending []int) []ModuleID {
	var ready []ModuleID
	for i, present := range g.Present {
		if present && pending[i] == 0 {
			ready = append(ready, moduleID(i))
		}
	}
	return ready
}

func moduleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}
