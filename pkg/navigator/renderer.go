package navigator

import "github.com/mattsolo1/grove-faulttree/pkg/tree"

// Renderer is notified of every state change the navigator makes. Implementations turn
// these into a user interface; the navigator itself never formats output.
//
// Callbacks run on the goroutine that caused the change and never while navigator locks
// are held, so a renderer may call back into the navigator.
type Renderer interface {
	OnNodeListChanged(parent *tree.Node, children []*tree.Node)
	OnExpansionStateChanged(n *tree.Node, state tree.ExpansionState)
	OnVisibilitySetChanged(v Visibility, hasAnyMatch bool)
	OnActivePathChanged(chain []*tree.Node)
}

// NopRenderer ignores every notification.
type NopRenderer struct{}

func (NopRenderer) OnNodeListChanged(*tree.Node, []*tree.Node)             {}
func (NopRenderer) OnExpansionStateChanged(*tree.Node, tree.ExpansionState) {}
func (NopRenderer) OnVisibilitySetChanged(Visibility, bool)                 {}
func (NopRenderer) OnActivePathChanged([]*tree.Node)                        {}

// MultiRenderer fans notifications out to several renderers in order.
type MultiRenderer []Renderer

func (m MultiRenderer) OnNodeListChanged(parent *tree.Node, children []*tree.Node) {
	for _, r := range m {
		r.OnNodeListChanged(parent, children)
	}
}

func (m MultiRenderer) OnExpansionStateChanged(n *tree.Node, state tree.ExpansionState) {
	for _, r := range m {
		r.OnExpansionStateChanged(n, state)
	}
}

func (m MultiRenderer) OnVisibilitySetChanged(v Visibility, hasAnyMatch bool) {
	for _, r := range m {
		r.OnVisibilitySetChanged(v, hasAnyMatch)
	}
}

func (m MultiRenderer) OnActivePathChanged(chain []*tree.Node) {
	for _, r := range m {
		r.OnActivePathChanged(chain)
	}
}
