package dag

import (
	"slices"

	"rook/internal/project"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] = []to, from импортирует из to
	Indeg   []int        // входящие степени для Kahn (учитывает только присутствующие модули)
	Present []bool       // признак, что модуль реально существует (а не только импортируется)
}

// BuildGraph turns module metadata into an import graph. Duplicate edges
// and self edges are dropped. Module imports may be cyclic.
func BuildGraph(idx ModuleIndex, metas []project.ModuleMeta) Graph {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	for _, meta := range metas {
		g.Present[idx.NameToID[nodeName(meta.Path)]] = true
	}

	for _, meta := range metas {
		from := idx.NameToID[nodeName(meta.Path)]
		seen := make(map[ModuleID]struct{}, len(meta.Imports))
		for _, dep := range meta.Imports {
			to := idx.NameToID[nodeName(dep.Path)]
			if to == from {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[from] = append(g.Edges[from], to)
			if g.Present[to] {
				g.Indeg[to]++
			}
		}
		slices.Sort(g.Edges[from])
	}
	return g
}

// Reachable returns every present module reachable from id, excluding id
// itself unless it sits on a cycle. The result is sorted.
func Reachable(g Graph, id ModuleID) []ModuleID {
	seen := make([]bool, len(g.Edges))
	stack := append([]ModuleID(nil), g.Edges[id]...)
	var out []ModuleID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] || !g.Present[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		stack = append(stack, g.Edges[n]...)
	}
	slices.Sort(out)
	return out
}

// ModuleHashes fills ModuleHash of every meta: its content hash combined
// with the content hashes of every module it transitively imports from.
func ModuleHashes(metas []project.ModuleMeta) {
	idx := BuildIndex(metas)
	g := BuildGraph(idx, metas)
	content := make([]project.Digest, len(idx.IDToName))
	for _, meta := range metas {
		content[idx.NameToID[nodeName(meta.Path)]] = meta.ContentHash
	}
	for i := range metas {
		id := idx.NameToID[nodeName(metas[i].Path)]
		var deps []project.Digest
		for _, dep := range Reachable(g, id) {
			if dep != id {
				deps = append(deps, content[dep])
			}
		}
		metas[i].ModuleHash = project.Combine(metas[i].ContentHash, deps...)
	}
}
