package navigator

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// nodeSet is a set of node IDs.
type nodeSet map[tree.NodeID]struct{}

func (s nodeSet) add(n *tree.Node) { s[n.ID] = struct{}{} }

func (s nodeSet) has(n *tree.Node) bool {
	_, ok := s[n.ID]
	return ok
}

// Visibility is the outcome of filtering the materialized tree by a keyword.
//
// When Cleared is true the filter is off and every materialized node is visible. Otherwise
// Visible holds each matching node plus its whole ancestor chain, and AutoExpanded the
// folders on those chains that must display as open for the matches to be reachable. A
// hidden node hides its subtree.
type Visibility struct {
	Keyword      string
	Cleared      bool
	HasMatch     bool
	Visible      nodeSet
	Matched      nodeSet
	AutoExpanded nodeSet
}

// Contains reports whether n is in the visible set.
func (v Visibility) Contains(n *tree.Node) bool {
	return v.Visible.has(n)
}

// IsMatch reports whether n's own title matched the keyword.
func (v Visibility) IsMatch(n *tree.Node) bool {
	return v.Matched.has(n)
}

// IsAutoExpanded reports whether n is displayed open because a match lies below it.
func (v Visibility) IsAutoExpanded(n *tree.Node) bool {
	return v.AutoExpanded.has(n)
}

// Len returns the size of the visible set.
func (v Visibility) Len() int {
	return len(v.Visible)
}

// NoResults reports an active filter that matched nothing.
func (v Visibility) NoResults() bool {
	return !v.Cleared && !v.HasMatch
}

// ComputeVisibility filters the materialized tree of store by keyword, a case-insensitive
// substring of node titles. Only loaded nodes are searched: folders that were never
// expanded contribute nothing below themselves. An empty keyword clears the filter.
func ComputeVisibility(store *tree.Store, keyword string) Visibility {
	keyword = strings.TrimSpace(keyword)
	v := Visibility{
		Keyword:      keyword,
		Visible:      make(nodeSet),
		Matched:      make(nodeSet),
		AutoExpanded: make(nodeSet),
	}

	if keyword == "" {
		v.Cleared = true
		store.Walk(func(n *tree.Node) bool {
			v.Visible.add(n)
			return true
		})
		return v
	}

	// A Caser keeps state and must not be shared across calls.
	fold := cases.Fold()
	needle := fold.String(keyword)
	store.Walk(func(n *tree.Node) bool {
		if !strings.Contains(fold.String(n.Title()), needle) {
			return true
		}
		v.Matched.add(n)
		v.Visible.add(n)
		for p := n.Parent; p != nil; p = p.Parent {
			v.Visible.add(p)
			v.AutoExpanded.add(p)
		}
		return true
	})
	v.HasMatch = len(v.Matched) > 0
	return v
}
