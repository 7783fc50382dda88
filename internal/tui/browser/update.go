package browser

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.filterInput.Width = msg.Width / 3
		m.adjustScroll()
		return m, nil

	case treeChangedMsg:
		m.refresh()
		return m, waitForChange(m.renderer)

	case initDoneMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error loading root collection: %v", msg.err)
			return m, nil
		}
		m.ready = true
		if msg.fallback {
			m.statusMessage = fmt.Sprintf("Root collection unavailable (%v), showing built-in folders", msg.fallbackErr)
		}
		m.refresh()
		return m, nil

	case activatedMsg:
		m.refresh()
		if msg.sel.Err != nil {
			m.statusMessage = fmt.Sprintf("Failed to load %s: %v (enter to retry)", msg.sel.Node.Title(), msg.sel.Err)
		} else {
			m.statusMessage = ""
		}
		return m, nil

	case loadAllDoneMsg:
		m.loadingAll = false
		m.refresh()
		switch {
		case msg.err != nil:
			m.statusMessage = fmt.Sprintf("Loading stopped: %v", msg.err)
		case len(msg.failures) > 0:
			m.statusMessage = fmt.Sprintf("%d folder(s) failed to load", len(msg.failures))
		default:
			m.statusMessage = fmt.Sprintf("Loaded %d nodes", m.nav.Store().Len())
		}
		return m, nil

	case tea.KeyMsg:
		if m.help.ShowAll {
			m.help.Toggle()
			return m, nil
		}

		// Handle filtering mode
		if m.filterInput.Focused() {
			switch {
			case key.Matches(msg, m.keys.Back): // Esc
				m.clearFilter()
				return m, nil
			case key.Matches(msg, m.keys.Confirm): // Enter
				m.filterInput.Blur()
				return m, nil
			default:
				m.filterInput, cmd = m.filterInput.Update(msg)
				m.applyFilter()
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.Toggle()
			return m, nil
		case key.Matches(msg, m.keys.Back):
			if m.filterInput.Value() != "" {
				m.clearFilter()
			}
		case key.Matches(msg, m.keys.Search):
			m.filterInput.Focus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.PageUp):
			pageSize := m.getViewportHeight() / 2
			if pageSize < 1 {
				pageSize = 1
			}
			m.cursor -= pageSize
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.adjustScroll()
		case key.Matches(msg, m.keys.PageDown):
			pageSize := m.getViewportHeight() / 2
			if pageSize < 1 {
				pageSize = 1
			}
			m.cursor += pageSize
			m.clampCursor()
			m.adjustScroll()
		case key.Matches(msg, m.keys.GoToTop):
			// Handle 'gg' - go to top when g is pressed twice
			if m.lastKey == "g" {
				m.cursor = 0
				m.adjustScroll()
				m.lastKey = ""
			} else {
				m.lastKey = "g"
			}
			return m, nil
		case key.Matches(msg, m.keys.GoToBottom):
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.Confirm):
			if n := m.current(); n != nil {
				return m, activateCmd(m.ctx, m.nav, n)
			}
		case key.Matches(msg, m.keys.Expand):
			if n := m.current(); n != nil && n.IsFolder() && !m.rows[m.cursor].Open {
				return m, activateCmd(m.ctx, m.nav, n)
			}
		case key.Matches(msg, m.keys.Collapse):
			m.collapseOrParent()
		case key.Matches(msg, m.keys.LoadAll):
			if !m.loadingAll {
				m.loadingAll = true
				m.statusMessage = "Loading every folder..."
				return m, loadAllCmd(m.ctx, m.nav)
			}
		}
		m.lastKey = ""
	}
	return m, nil
}

// collapseOrParent closes the folder under the cursor, or moves to its parent.
func (m *Model) collapseOrParent() {
	n := m.current()
	if n == nil {
		return
	}
	if n.IsFolder() && m.nav.Controller().State(n) == tree.StateExpanded {
		m.nav.Controller().Collapse(n)
		m.nav.RefreshFilter()
		m.refresh()
		return
	}
	if n.Parent == nil {
		return
	}
	for i, r := range m.rows {
		if r.Node == n.Parent {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

func (m *Model) applyFilter() {
	v := m.nav.Filter(m.filterInput.Value())
	m.statusMessage = ""
	if v.NoResults() {
		m.statusMessage = "No matching nodes among loaded folders"
	}
	m.cursor = 0
	m.refresh()
}

func (m *Model) clearFilter() {
	m.filterInput.SetValue("")
	m.filterInput.Blur()
	m.nav.ClearFilter()
	m.statusMessage = ""
	m.refresh()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		} else {
			m.cursor = 0
		}
	}
}

// getViewportHeight calculates how many lines are available for the tree.
func (m *Model) getViewportHeight() int {
	// Account for:
	// - Top margin: 1 line
	// - Header and search line: 2 lines
	// - Blank lines around the tree: 2 lines
	// - Status bar: 1 line
	// - Footer (help): 1 line
	// - Scroll indicator (when shown): 2 lines (blank + indicator)
	const fixedLines = 9
	availableHeight := m.height - fixedLines
	if m.width < wideLayout {
		availableHeight -= detailHeight
	}
	if availableHeight < 1 {
		return 1
	}
	return availableHeight
}

// adjustScroll ensures the cursor is visible in the viewport.
func (m *Model) adjustScroll() {
	viewportHeight := m.getViewportHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	} else if m.cursor >= m.scrollOffset+viewportHeight {
		m.scrollOffset = m.cursor - viewportHeight + 1
	}
	// Ensure scrollOffset never goes negative
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

var _ navigator.Renderer = (*Renderer)(nil)
