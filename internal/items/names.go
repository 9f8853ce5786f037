package items

// Names is a prefix tree of item paths. It answers "is this a known module
// prefix" and "what are the direct children of this prefix".
type Names struct {
	root namesNode
}

type namesNode struct {
	term     bool
	order    []string // children in insertion order
	children map[string]*namesNode
}

// NewNames returns an empty tree.
func NewNames() *Names {
	return &Names{}
}

// Insert adds item and all of its prefixes. It reports false when item was already present.
func (n *Names) Insert(item Item) bool {
	node := &n.root
	for _, c := range item.components {
		key := c.String()
		child, ok := node.children[key]
		if !ok {
			if node.children == nil {
				node.children = make(map[string]*namesNode)
			}
			child = &namesNode{}
			node.children[key] = child
			node.order = append(node.order, key)
		}
		node = child
	}
	if node.term {
		return false
	}
	node.term = true
	return true
}

func (n *Names) lookup(item Item) *namesNode {
	node := &n.root
	for _, c := range item.components {
		child, ok := node.children[c.String()]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// Contains reports whether item itself was inserted.
func (n *Names) Contains(item Item) bool {
	node := n.lookup(item)
	return node != nil && node.term
}

// ContainsPrefix reports whether any inserted item starts with prefix.
func (n *Names) ContainsPrefix(prefix Item) bool {
	return n.lookup(prefix) != nil
}

// IterComponents returns the direct children of prefix in insertion order.
func (n *Names) IterComponents(prefix Item) []string {
	node := n.lookup(prefix)
	if node == nil {
		return nil
	}
	return append([]string(nil), node.order...)
}
