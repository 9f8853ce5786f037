package dag

import (
	"sort"

	"rook/internal/project"
)

type ModuleID uint32

type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// nodeName maps the root module's empty path to "crate".
func nodeName(path string) string {
	if path == "" {
		return "crate"
	}
	return path
}

// собрать уникальные имена, sort.Strings, раздать ID по порядку
func BuildIndex(metas []project.ModuleMeta) ModuleIndex {
	uniq := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		uniq[nodeName(meta.Path)] = struct{}{}
		for _, dep := range meta.Imports {
			uniq[nodeName(dep.Path)] = struct{}{}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]ModuleID, len(names))
	for i, name := range names {
		nameToID[name] = ModuleID(i)
	}

	return ModuleIndex{
		NameToID: nameToID,
		IDToName: names,
	}
}
