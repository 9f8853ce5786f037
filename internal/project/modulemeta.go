package project

import (
	"slices"
	"strings"
	"unicode"

	"rook/internal/index"
	"rook/internal/items"
	"rook/internal/query"
	"rook/internal/source"
)

// ImportMeta is a dependency of one module on another, taken from a `use`.
type ImportMeta struct {
	Path string
	Span source.Span
}

type ModuleKind uint8

const (
	ModuleKindUnknown ModuleKind = iota
	ModuleKindRoot
	ModuleKindFile
)

func (k ModuleKind) String() string {
	switch k {
	case ModuleKindRoot:
		return "root"
	case ModuleKindFile:
		return "file"
	default:
		return "unknown"
	}
}

type ModuleFileMeta struct {
	Path string
	Hash Digest
}

type ModuleMeta struct {
	Path        string // путь модуля в виде item: "a::b", "" для корня
	Kind        ModuleKind
	Span        source.Span  // объявление `mod`, нулевой для корня
	Imports     []ImportMeta // модули, из которых что-то импортируется
	Files       []ModuleFileMeta
	ContentHash Digest // хеш содержимого файлов модуля
	ModuleHash  Digest // агрегированный хеш модуля с учётом зависимостей
}

// DisplayName renders the module path, "crate" for the root.
func (m *ModuleMeta) DisplayName() string {
	if m.Path == "" {
		return "crate"
	}
	return m.Path
}

func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// BuildModuleMetas describes every module of a finished pass: one root
// module holding all root files plus one module per loaded file module.
// An import whose target lives in another module becomes an edge to the
// closest enclosing module of the target. Imports of names the unit does
// not know (natives) are not edges. The result is sorted by path.
func BuildModuleMetas(roots []*source.File, loaded index.Loaded, unit *query.Unit) []ModuleMeta {
	root := ModuleMeta{Kind: ModuleKindRoot}
	for _, f := range roots {
		root.Files = append(root.Files, ModuleFileMeta{Path: f.Path, Hash: HashBytes(f.Content)})
	}
	metas := []ModuleMeta{root}
	mods := make([]items.Item, 0, len(loaded))
	for _, lm := range loaded {
		metas = append(metas, ModuleMeta{
			Path:  lm.Item.String(),
			Kind:  ModuleKindFile,
			Span:  lm.Span,
			Files: []ModuleFileMeta{{Path: lm.File.Path, Hash: HashBytes(lm.File.Content)}},
		})
		mods = append(mods, lm.Item)
	}
	slices.SortFunc(metas, func(a, b ModuleMeta) int { return strings.Compare(a.Path, b.Path) })

	byPath := make(map[string]int, len(metas))
	for i := range metas {
		byPath[metas[i].Path] = i
	}
	for _, imp := range unit.Imports() {
		if !unit.ContainsPrefix(imp.Target) {
			continue
		}
		from := owner(mods, imp.Module)
		to := owner(mods, imp.Target)
		if from == to {
			continue
		}
		m := &metas[byPath[from]]
		if slices.ContainsFunc(m.Imports, func(d ImportMeta) bool { return d.Path == to }) {
			continue
		}
		m.Imports = append(m.Imports, ImportMeta{Path: to, Span: imp.Span})
	}
	for i := range metas {
		m := &metas[i]
		digests := make([]Digest, len(m.Files))
		for j, f := range m.Files {
			digests[j] = f.Hash
		}
		if len(digests) == 1 {
			m.ContentHash = digests[0]
		} else {
			m.ContentHash = Combine(Digest{}, digests...)
		}
		slices.SortFunc(m.Imports, func(a, b ImportMeta) int { return strings.Compare(a.Path, b.Path) })
	}
	return metas
}

// owner returns the path of the deepest loaded module containing item.
func owner(mods []items.Item, item items.Item) string {
	best := items.Item{}
	for _, m := range mods {
		if item.HasPrefix(m) && m.Len() > best.Len() {
			best = m
		}
	}
	return best.String()
}
