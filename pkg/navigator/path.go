package navigator

import (
	"strings"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// DefaultSeparator joins breadcrumb titles.
const DefaultSeparator = " > "

// AncestorChain returns the nodes from the root list down to n, inclusive.
func AncestorChain(n *tree.Node) []*tree.Node {
	if n == nil {
		return nil
	}
	var chain []*tree.Node
	for curr := n; curr != nil; curr = curr.Parent {
		chain = append(chain, curr)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Breadcrumb joins the titles of chain with sep.
func Breadcrumb(chain []*tree.Node, sep string) string {
	titles := make([]string, len(chain))
	for i, n := range chain {
		titles[i] = n.Title()
	}
	return strings.Join(titles, sep)
}

// InheritedNotes collects the notes of every node on chain, oldest ancestor first.
// Nodes without notes are skipped.
func InheritedNotes(chain []*tree.Node) []string {
	var notes []string
	for _, n := range chain {
		if note := strings.TrimSpace(n.Descriptor.Notes); note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}
