package tree

import "sync"

// Store is the arena of materialized nodes. It owns the root list and indexes every live
// node by ID.
type Store struct {
	mu     sync.RWMutex
	roots  []*Node
	nodes  map[NodeID]*Node
	nextID NodeID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[NodeID]*Node),
	}
}

// BuildChildren wraps descs in fresh nodes under parent (or as the root list when parent is
// nil), replacing and detaching whatever sequence was there before.
func (s *Store) BuildChildren(parent *Node, descs []*Descriptor) []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	level := 0
	if parent != nil {
		level = parent.Level + 1
	}

	children := make([]*Node, 0, len(descs))
	for i, d := range descs {
		s.nextID++
		n := &Node{
			ID:         s.nextID,
			Descriptor: d,
			Key:        i,
			Level:      level,
			Parent:     parent,
		}
		if d.IsFolder() {
			n.State = StateCollapsed
		}
		s.nodes[n.ID] = n
		children = append(children, n)
	}

	if parent == nil {
		s.detachAll(s.roots)
		s.roots = children
	} else {
		s.detachAll(parent.Children)
		parent.Children = children
	}
	return children
}

// Detach drops the materialized subtree below parent.
func (s *Store) Detach(parent *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachAll(parent.Children)
	parent.Children = nil
}

func (s *Store) detachAll(nodes []*Node) {
	for _, n := range nodes {
		s.detachAll(n.Children)
		n.Children = nil
		n.detached = true
		n.generation++
		delete(s.nodes, n.ID)
	}
}

// Roots returns the root list.
func (s *Store) Roots() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roots
}

// Lookup finds a live node by ID.
func (s *Store) Lookup(id NodeID) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Walk visits the materialized tree in pre-order. Returning false from fn skips the
// node's subtree.
func (s *Store) Walk(fn func(*Node) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				walk(n.Children)
			}
		}
	}
	walk(s.roots)
}
