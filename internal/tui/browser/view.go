package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/mattsolo1/grove-faulttree/internal/render"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

const (
	// wideLayout is the terminal width from which the detail panel sits beside the tree.
	wideLayout   = 100
	detailHeight = 12
)

func (m Model) View() string {
	if !m.ready {
		if m.statusMessage != "" {
			return "\n" + m.statusMessage
		}
		return "Loading..."
	}

	if m.help.ShowAll {
		return m.help.View()
	}

	header := theme.DefaultTheme.Header.Render("Fault Tree")
	if kw := m.nav.Keyword(); kw != "" && !m.filterInput.Focused() {
		header += " " + theme.DefaultTheme.Info.Render(fmt.Sprintf("[Filter: %s]", kw))
	}

	search := m.filterInput.View()
	if !m.filterInput.Focused() && m.filterInput.Value() == "" {
		search = theme.DefaultTheme.Muted.Render("/ to search")
	}

	treeView := m.renderTree()
	detail := m.renderDetail()

	var body string
	if m.width >= wideLayout {
		treeWidth := m.width * 2 / 5
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(treeWidth).Render(treeView),
			lipgloss.NewStyle().
				Width(m.width-treeWidth-4).
				PaddingLeft(2).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(theme.DefaultTheme.Colors.Orange).
				Render(detail),
		)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			treeView,
			"",
			lipgloss.NewStyle().MaxHeight(detailHeight).Render(detail),
		)
	}

	status := ""
	if m.statusMessage != "" {
		status = theme.DefaultTheme.Muted.Render(m.statusMessage)
	}

	footer := m.help.View()

	// Combine components vertically
	fullView := lipgloss.JoinVertical(lipgloss.Left,
		header,
		search,
		"",
		body,
		"",
		status,
		footer,
	)

	// Add top margin to prevent border cutoff
	return "\n" + fullView
}

func (m Model) renderTree() string {
	if len(m.rows) == 0 {
		if v := m.nav.Visibility(); v.NoResults() {
			return theme.DefaultTheme.Muted.Render("No matching nodes found.")
		}
		return theme.DefaultTheme.Muted.Render("Empty tree.")
	}

	var b strings.Builder

	// Viewport calculation
	viewportHeight := m.getViewportHeight()
	start := m.scrollOffset
	end := m.scrollOffset + viewportHeight
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		row := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = theme.DefaultTheme.Highlight.Render("▶ ")
		}

		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", row.Depth), render.Icon(row), row.Node.Title())
		switch {
		case i == m.cursor:
			line = theme.DefaultTheme.Selected.Render(line)
		case row.Active:
			line = lipgloss.NewStyle().Bold(true).Render(line)
		case row.Match:
			line = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Orange).Render(line)
		}
		if row.State == tree.StateLoading {
			line += " " + theme.DefaultTheme.Muted.Render("loading...")
		}
		b.WriteString(cursor + line + "\n")
	}

	// Scroll indicator
	if len(m.rows) > viewportHeight {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(m.rows))))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDetail() string {
	sel := m.selection
	if sel.Node == nil {
		return theme.DefaultTheme.Muted.Render("Select a node to see its details.")
	}

	var parts []string
	parts = append(parts, theme.DefaultTheme.Info.Render(render.Breadcrumb(sel.Breadcrumb)))
	if notes := render.Notes(sel.Notes); len(notes) > 0 {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.DefaultTheme.Colors.Orange).
			Render(strings.Join(notes, "\n")))
	}

	switch {
	case sel.Node.IsPage():
		for _, s := range render.Page(sel.Node.Descriptor) {
			var b strings.Builder
			if s.Heading != "" {
				b.WriteString(theme.DefaultTheme.Header.Render(s.Heading) + "\n")
			}
			b.WriteString(strings.Join(s.Lines, "\n"))
			parts = append(parts, b.String())
		}
	case sel.Err != nil:
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.DefaultTheme.Colors.Red).
			Render("❌ "+sel.Err.Error()))
	default:
		parts = append(parts, theme.DefaultTheme.Muted.Render(fmt.Sprintf("Folder · %s", sel.State)))
	}
	return strings.Join(parts, "\n\n")
}
