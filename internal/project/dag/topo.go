package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is a Kahn ordering of the import graph. Importers come before the
// modules they import from.
type Topo struct {
	Order   []ModuleID   // линейный порядок (только реальные модули)
	Batches [][]ModuleID // волны независимых модулей
	Cyclic  bool
	Cycles  []ModuleID // узлы, которые не удалось упорядочить из-за циклов
}

func moduleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}

func ToposortKahn(g Graph) *Topo {
	indeg := slices.Clone(g.Indeg)
	topo := &Topo{}

	var current []ModuleID
	active := 0
	for i, present := range g.Present {
		if !present {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, moduleID(i))
		}
	}

	for len(current) > 0 {
		topo.Batches = append(topo.Batches, current)
		topo.Order = append(topo.Order, current...)
		var next []ModuleID
		for _, id := range current {
			for _, to := range g.Edges[id] {
				if !g.Present[to] {
					continue
				}
				if indeg[to]--; indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) == active {
		return topo
	}
	topo.Cyclic = true
	for i, present := range g.Present {
		if present && indeg[i] > 0 {
			topo.Cycles = append(topo.Cycles, moduleID(i))
		}
	}
	return topo
}

// Names maps ids back to module names.
func (idx ModuleIndex) Names(ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[id]
	}
	return out
}
