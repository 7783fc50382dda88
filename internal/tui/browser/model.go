// Package browser implements the interactive fault tree browser.
package browser

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattsolo1/grove-core/tui/components/help"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Model is the main model for the fault tree browser TUI
type Model struct {
	nav      *navigator.Navigator
	renderer *Renderer
	ctx      context.Context
	cancel   context.CancelFunc

	rows         []navigator.Row
	cursor       int
	scrollOffset int
	keys         KeyMap
	help         help.Model
	width        int
	height       int
	filterInput  textinput.Model
	lastKey      string // For detecting 'gg'

	ready         bool
	loadingAll    bool
	selection     navigator.Selection
	statusMessage string
}

// New creates a browser over nav. nav must have been built with
// navigator.WithRenderer(r) and not yet initialized; Init loads the root collection.
func New(nav *navigator.Navigator, r *Renderer) Model {
	helpModel := help.NewBuilder().
		WithKeys(keys).
		WithTitle("Fault Tree Browser - Help").
		Build()

	ti := textinput.New()
	ti.Placeholder = "Search loaded nodes..."
	ti.CharLimit = 100

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		nav:         nav,
		renderer:    r,
		ctx:         ctx,
		cancel:      cancel,
		keys:        keys,
		help:        helpModel,
		filterInput: ti,
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		initCmd(m.ctx, m.nav),
		waitForChange(m.renderer),
	)
}

// refresh rebuilds rows and the selection from the navigator.
func (m *Model) refresh() {
	var current *tree.Node
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].Node
	}

	m.rows = m.nav.Rows()
	m.selection = m.nav.Selection()

	// Keep the cursor on the same node when it is still displayed.
	if current != nil {
		for i, r := range m.rows {
			if r.Node == current {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
	m.adjustScroll()
}

func (m *Model) current() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Node
}
