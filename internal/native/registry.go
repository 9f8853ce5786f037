// Package native holds the host-provided modules visible to imports:
// functions, types and their instance functions registered by the embedder.
package native

import (
	"fmt"
	"slices"

	"rook/internal/items"
)

// Context is what import resolution needs from the host.
type Context interface {
	ContainsPrefix(prefix items.Item) bool
	IterComponents(prefix items.Item) []string
}

// EntryKind classifies a registered native item.
type EntryKind uint8

const (
	EntryModule EntryKind = iota
	EntryFunction
	EntryType
)

func (k EntryKind) String() string {
	switch k {
	case EntryModule:
		return "module"
	case EntryFunction:
		return "fn"
	case EntryType:
		return "type"
	default:
		return "invalid"
	}
}

// Entry is one registered native item.
type Entry struct {
	Kind     EntryKind
	Item     items.Item
	Instance []string // instance functions of a type
}

// Registry is an in-memory Context.
type Registry struct {
	names   *items.Names
	entries map[string]*Entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: items.NewNames(), entries: make(map[string]*Entry)}
}

func (r *Registry) add(kind EntryKind, item items.Item) (*Entry, error) {
	if item.IsEmpty() {
		return nil, fmt.Errorf("native: empty item path")
	}
	key := item.Key()
	if existing, ok := r.entries[key]; ok {
		// модуль может быть объявлен неявно через вложенные элементы
		if existing.Kind == EntryModule && kind == EntryModule {
			return existing, nil
		}
		return nil, fmt.Errorf("native: %s %s is already registered as %s", kind, item, existing.Kind)
	}
	// ensure parent modules exist
	if parent, ok := item.Parent(); ok && !parent.IsEmpty() {
		if _, ok := r.entries[parent.Key()]; !ok {
			if _, err := r.add(EntryModule, parent); err != nil {
				return nil, err
			}
		}
	}
	e := &Entry{Kind: kind, Item: item}
	r.entries[key] = e
	r.order = append(r.order, key)
	r.names.Insert(item)
	return e, nil
}

// Module registers a module path.
func (r *Registry) Module(path ...string) error {
	_, err := r.add(EntryModule, items.Of(path...))
	return err
}

// Function registers a free function.
func (r *Registry) Function(path ...string) error {
	_, err := r.add(EntryFunction, items.Of(path...))
	return err
}

// Type registers a type together with its instance functions.
func (r *Registry) Type(item items.Item, instance ...string) error {
	e, err := r.add(EntryType, item)
	if err != nil {
		return err
	}
	e.Instance = append(e.Instance, instance...)
	return nil
}

// Lookup returns the entry registered for item.
func (r *Registry) Lookup(item items.Item) (*Entry, bool) {
	e, ok := r.entries[item.Key()]
	return e, ok
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

func (r *Registry) ContainsPrefix(prefix items.Item) bool {
	return r.names.ContainsPrefix(prefix)
}

// IterComponents lists direct children of prefix, sorted.
func (r *Registry) IterComponents(prefix items.Item) []string {
	out := r.names.IterComponents(prefix)
	slices.Sort(out)
	return out
}

// Std returns a registry with the standard prelude modules.
func Std() *Registry {
	r := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Type(items.Of("std", "float"), "to_integer"))
	must(r.Function("std", "float", "parse"))
	must(r.Type(items.Of("std", "int"), "to_float"))
	must(r.Function("std", "int", "parse"))
	must(r.Function("std", "io", "print"))
	must(r.Function("std", "io", "println"))
	must(r.Function("std", "io", "dbg"))
	must(r.Type(items.Of("std", "string", "String"), "len", "push_str", "clone"))
	must(r.Type(items.Of("std", "vec", "Vec"), "len", "push", "iter"))
	must(r.Type(items.Of("std", "object", "Object"), "len", "get", "insert"))
	must(r.Function("std", "future", "join"))
	return r
}
