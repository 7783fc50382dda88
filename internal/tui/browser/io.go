package browser

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// treeChangedMsg signals that the navigator changed state and rows must be rebuilt.
type treeChangedMsg struct{}

type initDoneMsg struct {
	err         error
	fallback    bool
	fallbackErr error
}

type activatedMsg struct {
	sel navigator.Selection
}

type loadAllDoneMsg struct {
	failures []navigator.LoadFailure
	err      error
}

// Renderer forwards navigator notifications to the TUI. Notifications arrive from fetch
// goroutines; they are coalesced into a single pending signal.
type Renderer struct {
	changed chan struct{}
}

// NewRenderer creates a renderer to pass to navigator.WithRenderer.
func NewRenderer() *Renderer {
	return &Renderer{changed: make(chan struct{}, 1)}
}

func (r *Renderer) signal() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *Renderer) OnNodeListChanged(*tree.Node, []*tree.Node)             { r.signal() }
func (r *Renderer) OnExpansionStateChanged(*tree.Node, tree.ExpansionState) { r.signal() }
func (r *Renderer) OnVisibilitySetChanged(navigator.Visibility, bool)       { r.signal() }
func (r *Renderer) OnActivePathChanged([]*tree.Node)                        { r.signal() }

// waitForChange blocks until the navigator reports a change.
func waitForChange(r *Renderer) tea.Cmd {
	return func() tea.Msg {
		<-r.changed
		return treeChangedMsg{}
	}
}

func initCmd(ctx context.Context, nav *navigator.Navigator) tea.Cmd {
	return func() tea.Msg {
		err := nav.Init(ctx)
		fallback, fallbackErr := nav.UsedFallback()
		return initDoneMsg{err: err, fallback: fallback, fallbackErr: fallbackErr}
	}
}

// activateCmd runs Activate off the UI goroutine; a folder fetch may take a while and
// the Loading state is shown meanwhile through the renderer.
func activateCmd(ctx context.Context, nav *navigator.Navigator, n *tree.Node) tea.Cmd {
	return func() tea.Msg {
		return activatedMsg{sel: nav.Activate(ctx, n)}
	}
}

func loadAllCmd(ctx context.Context, nav *navigator.Navigator) tea.Cmd {
	return func() tea.Msg {
		failures, err := nav.Controller().ExpandAll(ctx, -1)
		nav.RefreshFilter()
		return loadAllDoneMsg{failures: failures, err: err}
	}
}
