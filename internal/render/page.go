// Package render turns fault tree nodes into plain text for terminal output. Styling is
// left to the caller.
package render

import (
	"strings"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

const (
	RootCauseHeading = "根本原因"
	MeasuresHeading  = "维修措施"
	NoContent        = "暂无内容。"
	BreadcrumbPrefix = "路径: "
	NotePrefix       = "⚠️ "
)

// Section is one headed block of a page. Content has no heading.
type Section struct {
	Heading string   `json:"heading,omitempty"`
	Lines   []string `json:"lines"`
}

// Page lays out a page descriptor: root cause, then measures, then free content.
// A page with none of them yields a single placeholder section.
func Page(d *tree.Descriptor) []Section {
	var sections []Section
	if rc := HTMLToText(d.RootCause); rc != "" {
		sections = append(sections, Section{Heading: RootCauseHeading, Lines: strings.Split(rc, "\n")})
	}
	if len(d.Measures) > 0 {
		s := Section{Heading: MeasuresHeading}
		for _, m := range d.Measures {
			if m = HTMLToText(m); m != "" {
				s.Lines = append(s.Lines, "• "+m)
			}
		}
		if len(s.Lines) > 0 {
			sections = append(sections, s)
		}
	}
	if c := HTMLToText(d.Content); c != "" {
		sections = append(sections, Section{Lines: strings.Split(c, "\n")})
	}
	if len(sections) == 0 {
		sections = append(sections, Section{Lines: []string{NoContent}})
	}
	return sections
}

// PageText renders Page as plain text with sections separated by blank lines.
func PageText(d *tree.Descriptor) string {
	var b strings.Builder
	for i, s := range Page(d) {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.Heading != "" {
			b.WriteString(s.Heading + "\n")
		}
		for _, line := range s.Lines {
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Notes prefixes each inherited note with a warning marker.
func Notes(notes []string) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = NotePrefix + n
	}
	return out
}

// Breadcrumb labels a trail; an empty trail stays empty.
func Breadcrumb(trail string) string {
	if trail == "" {
		return ""
	}
	return BreadcrumbPrefix + trail
}

// Icon returns the marker shown before a row's title.
func Icon(row navigator.Row) string {
	if !row.Node.IsFolder() {
		return "📄"
	}
	switch {
	case row.State == tree.StateLoading:
		return "⏳"
	case row.State == tree.StateLoadError:
		return "❌"
	case row.Open:
		return "📂"
	default:
		return "📁"
	}
}

// Selection renders everything shown for the active node: breadcrumb, notes and, for a
// page, its content.
func Selection(sel navigator.Selection) string {
	if sel.Node == nil {
		return ""
	}
	var parts []string
	if bc := Breadcrumb(sel.Breadcrumb); bc != "" {
		parts = append(parts, bc)
	}
	if notes := Notes(sel.Notes); len(notes) > 0 {
		parts = append(parts, strings.Join(notes, "\n"))
	}
	if sel.Node.IsPage() {
		parts = append(parts, PageText(sel.Node.Descriptor))
	} else if sel.Err != nil {
		parts = append(parts, "❌ "+sel.Err.Error())
	}
	return strings.Join(parts, "\n\n")
}
