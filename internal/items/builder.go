package items

import (
	"fmt"

	"fortio.org/safecast"
)

// node is one pushed component plus the counter of anonymous children
// created directly under it.
type node struct {
	component Component
	children  int
}

// Items builds item paths while the indexer walks a tree. Components are
// only pushed through the With* helpers, which pop on every exit path.
type Items struct {
	root  int // anonymous children of the root path
	stack []node
}

// NewItems returns a builder positioned at the root path.
func NewItems() *Items {
	return &Items{}
}

// FromItem returns a builder positioned at base, e.g. the item of a loaded file module.
func FromItem(base Item) *Items {
	b := &Items{stack: make([]node, 0, base.Len()+4)}
	for _, c := range base.components {
		b.stack = append(b.stack, node{component: c})
	}
	return b
}

// Item returns the current path.
func (b *Items) Item() Item {
	if len(b.stack) == 0 {
		return Item{}
	}
	cs := make([]Component, len(b.stack))
	for i, n := range b.stack {
		cs[i] = n.component
	}
	return Item{components: cs}
}

// IsEmpty reports whether the builder is at the root path.
func (b *Items) IsEmpty() bool {
	return len(b.stack) == 0
}

// Depth is the number of pushed components.
func (b *Items) Depth() int {
	return len(b.stack)
}

// WithName pushes a named component for the duration of fn.
func (b *Items) WithName(name string, fn func() error) error {
	return b.with(Name(name), fn)
}

// WithBlock pushes a `$blockN` component for the duration of fn.
func (b *Items) WithBlock(fn func() error) error {
	return b.with(b.anonymous(KindBlock), fn)
}

// WithClosure pushes a `$closureN` component for the duration of fn.
func (b *Items) WithClosure(fn func() error) error {
	return b.with(b.anonymous(KindClosure), fn)
}

// WithAsyncBlock pushes a `$asyncN` component for the duration of fn.
func (b *Items) WithAsyncBlock(fn func() error) error {
	return b.with(b.anonymous(KindAsyncBlock), fn)
}

// WithMacro pushes a `$macroN` component for the duration of fn.
func (b *Items) WithMacro(fn func() error) error {
	return b.with(b.anonymous(KindMacro), fn)
}

func (b *Items) with(c Component, fn func() error) error {
	depth := len(b.stack)
	b.stack = append(b.stack, node{component: c})
	defer func() {
		// LIFO: fn must leave the stack exactly as it found it
		if len(b.stack) != depth+1 {
			panic(fmt.Sprintf("items: unbalanced path stack: depth %d, want %d", len(b.stack), depth+1))
		}
		b.stack = b.stack[:depth]
	}()
	return fn()
}

// anonymous allocates the next index under the current path node.
// The counter is shared by all anonymous kinds.
func (b *Items) anonymous(kind Kind) Component {
	counter := &b.root
	if n := len(b.stack); n > 0 {
		counter = &b.stack[n-1].children
	}
	idx, err := safecast.Conv[uint32](*counter)
	if err != nil {
		panic(fmt.Errorf("items: anonymous counter overflow: %w", err))
	}
	*counter++
	return Component{Kind: kind, Index: idx}
}

// PopMacro removes a trailing `$macroN` component. It reports false and leaves
// the builder untouched when the last component is something else.
func (b *Items) PopMacro() bool {
	n := len(b.stack)
	if n == 0 || b.stack[n-1].component.Kind != KindMacro {
		return false
	}
	b.stack = b.stack[:n-1]
	return true
}

// Snapshot is a deep copy of builder state: the path and every counter.
type Snapshot struct {
	root  int
	stack []node
}

// Item returns the path captured by the snapshot.
func (s Snapshot) Item() Item {
	return (&Items{stack: s.stack}).Item()
}

// Snapshot captures the builder state.
func (b *Items) Snapshot() Snapshot {
	return Snapshot{root: b.root, stack: append([]node(nil), b.stack...)}
}

// FromSnapshot returns a builder that continues from s. Later pushes on the new
// builder do not affect s or the builder it was taken from.
func FromSnapshot(s Snapshot) *Items {
	return &Items{root: s.root, stack: append([]node(nil), s.stack...)}
}
