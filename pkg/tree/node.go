package tree

import (
	"strconv"
	"strings"
)

// NodeID identifies a materialized node inside a Store. IDs are never reused, so a node
// rebuilt after a collapse/expand cycle gets a fresh one.
type NodeID uint64

// ExpansionState is the open/closed state of a folder node.
type ExpansionState int

const (
	StateNone ExpansionState = iota // Pages have no expansion state
	StateCollapsed
	StateLoading
	StateExpanded
	StateLoadError
)

func (s ExpansionState) String() string {
	switch s {
	case StateCollapsed:
		return "collapsed"
	case StateLoading:
		return "loading"
	case StateExpanded:
		return "expanded"
	case StateLoadError:
		return "load_error"
	default:
		return "none"
	}
}

// Node is a materialized tree entry. Nodes are owned by their parent's Children slice
// (or the store's root list); Parent is a back-reference only.
type Node struct {
	ID         NodeID
	Descriptor *Descriptor
	Key        int
	Level      int
	Parent     *Node

	// Expansion state, mutated only by the navigator's controller.
	State    ExpansionState
	Children []*Node
	Err      error

	generation uint64
	detached   bool
}

// Title returns the node's display title.
func (n *Node) Title() string {
	return n.Descriptor.Title
}

// IsFolder reports whether the node can be expanded.
func (n *Node) IsFolder() bool {
	return n.Descriptor.IsFolder()
}

// IsPage reports whether the node is a content leaf.
func (n *Node) IsPage() bool {
	return !n.Descriptor.IsFolder()
}

// Generation returns the node's transition counter. It changes on every state transition
// and when the node is detached from the tree.
func (n *Node) Generation() uint64 {
	return n.generation
}

// Detached reports whether the node has been dropped from its parent's children.
func (n *Node) Detached() bool {
	return n.detached
}

// SetState moves the node to a new expansion state and bumps its generation.
func (n *Node) SetState(s ExpansionState) {
	n.State = s
	n.generation++
}

// Path returns the positional key path from the root list, e.g. "0/3/1".
func (n *Node) Path() string {
	var keys []string
	for curr := n; curr != nil; curr = curr.Parent {
		keys = append(keys, strconv.Itoa(curr.Key))
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return strings.Join(keys, "/")
}
