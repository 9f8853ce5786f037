// Package items builds hierarchical item paths such as `a::b::$block0::$closure1`.
package items

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Kind enumerates the kinds of path components.
type Kind uint8

const (
	KindName Kind = iota
	KindBlock
	KindClosure
	KindAsyncBlock
	KindMacro
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindBlock:
		return "block"
	case KindClosure:
		return "closure"
	case KindAsyncBlock:
		return "async"
	case KindMacro:
		return "macro"
	default:
		return "invalid"
	}
}

// Component is one segment of an item path. Name is set for KindName,
// Index for the anonymous kinds.
type Component struct {
	Kind  Kind
	Name  string
	Index uint32
}

// Name builds a named component.
func Name(name string) Component {
	return Component{Kind: KindName, Name: name}
}

// IsAnonymous reports whether the component was synthesised (block, closure, ...).
func (c Component) IsAnonymous() bool {
	return c.Kind != KindName
}

func (c Component) String() string {
	if c.Kind == KindName {
		return c.Name
	}
	return "$" + c.Kind.String() + strconv.FormatUint(uint64(c.Index), 10)
}

// Item is an immutable item path. The zero value is the root path.
type Item struct {
	components []Component
}

// New returns an item made of the given components.
func New(components ...Component) Item {
	if len(components) == 0 {
		return Item{}
	}
	return Item{components: append([]Component(nil), components...)}
}

// Of returns an item made only of named components.
func Of(names ...string) Item {
	cs := make([]Component, len(names))
	for i, n := range names {
		cs[i] = Name(n)
	}
	return Item{components: cs}
}

// Parse splits a `::`-separated display path. Components such as `$block0`
// are read back as anonymous components.
func Parse(path string) Item {
	if path == "" {
		return Item{}
	}
	parts := strings.Split(path, "::")
	cs := make([]Component, len(parts))
	for i, part := range parts {
		cs[i] = parseComponent(part)
	}
	return Item{components: cs}
}

func parseComponent(s string) Component {
	if !strings.HasPrefix(s, "$") {
		return Name(s)
	}
	for _, k := range []Kind{KindBlock, KindClosure, KindAsyncBlock, KindMacro} {
		digits, ok := strings.CutPrefix(s[1:], k.String())
		if !ok || digits == "" {
			continue
		}
		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			continue
		}
		return Component{Kind: k, Index: uint32(n)}
	}
	return Name(s)
}

func (it Item) Len() int           { return len(it.components) }
func (it Item) IsEmpty() bool      { return len(it.components) == 0 }
func (it Item) At(i int) Component { return it.components[i] }

// Components returns a copy of the components.
func (it Item) Components() []Component {
	return append([]Component(nil), it.components...)
}

// Last returns the final component.
func (it Item) Last() (Component, bool) {
	if len(it.components) == 0 {
		return Component{}, false
	}
	return it.components[len(it.components)-1], true
}

// Parent returns the item without its final component.
func (it Item) Parent() (Item, bool) {
	if len(it.components) == 0 {
		return Item{}, false
	}
	return Item{components: it.components[: len(it.components)-1 : len(it.components)-1]}, true
}

// Extend returns a new item with c appended. The receiver is left untouched.
func (it Item) Extend(c Component) Item {
	out := make([]Component, len(it.components), len(it.components)+1)
	copy(out, it.components)
	return Item{components: append(out, c)}
}

// Join appends named components.
func (it Item) Join(names ...string) Item {
	out := make([]Component, len(it.components), len(it.components)+len(names))
	copy(out, it.components)
	for _, n := range names {
		out = append(out, Name(n))
	}
	return Item{components: out}
}

// HasPrefix reports whether prefix is a (non-strict) prefix of the item.
func (it Item) HasPrefix(prefix Item) bool {
	if len(prefix.components) > len(it.components) {
		return false
	}
	for i, c := range prefix.components {
		if it.components[i] != c {
			return false
		}
	}
	return true
}

func (it Item) Equal(other Item) bool {
	return len(it.components) == len(other.components) && it.HasPrefix(other)
}

// Names returns the names of the components; ok is false if any component is anonymous.
func (it Item) Names() (names []string, ok bool) {
	names = make([]string, len(it.components))
	for i, c := range it.components {
		if c.Kind != KindName {
			return nil, false
		}
		names[i] = c.Name
	}
	return names, true
}

// String renders the item as `a::b::$block0`.
func (it Item) String() string {
	var sb strings.Builder
	for i, c := range it.components {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Key is the canonical map key of the item.
func (it Item) Key() string {
	return it.String()
}

// Hash is the 64-bit type hash of the item.
func (it Item) Hash() uint64 {
	return xxh3.HashString(it.Key())
}
