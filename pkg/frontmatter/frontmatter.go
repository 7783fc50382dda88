// Package frontmatter reads and writes fault tree pages kept as Markdown documents: a
// YAML frontmatter block with the page fields followed by the page content.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?(.*)`)

// Frontmatter represents the structured metadata at the beginning of a page document
type Frontmatter struct {
	Title     string   `yaml:"title"`
	Type      string   `yaml:"type,omitempty"` // Defaults to page
	RootCause string   `yaml:"rootCause,omitempty"`
	Measures  []string `yaml:"measures,flow"`
	Notes     string   `yaml:"notes,omitempty"`
	Images    []string `yaml:"images,flow"`
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	frontmatterStr := matches[1]
	bodyContent := matches[2]

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(frontmatterStr), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Ensure arrays are never nil
	if fm.Measures == nil {
		fm.Measures = []string{}
	}
	if fm.Images == nil {
		fm.Images = []string{}
	}

	return &fm, bodyContent, nil
}

// Descriptor turns a parsed document into a page descriptor. The body becomes the
// page content.
func (fm *Frontmatter) Descriptor(body string) *tree.Descriptor {
	d := &tree.Descriptor{
		Title:     fm.Title,
		Type:      tree.NodeType(fm.Type),
		RootCause: fm.RootCause,
		Notes:     fm.Notes,
		Content:   strings.TrimSpace(body),
	}
	if d.Type == "" {
		d.Type = tree.TypePage
	}
	if len(fm.Measures) > 0 {
		d.Measures = fm.Measures
	}
	if len(fm.Images) > 0 {
		d.Images = fm.Images
	}
	return d
}

// FromDescriptor is the inverse of Descriptor for page fields.
func FromDescriptor(d *tree.Descriptor) (*Frontmatter, string) {
	return &Frontmatter{
		Title:     d.Title,
		Type:      string(d.Type),
		RootCause: d.RootCause,
		Measures:  d.Measures,
		Notes:     d.Notes,
		Images:    d.Images,
	}, d.Content
}

// Build creates the YAML frontmatter string from a Frontmatter struct
func Build(fm *Frontmatter) string {
	var sb strings.Builder

	sb.WriteString("---\n")

	// Always include these fields in a consistent order
	sb.WriteString(fmt.Sprintf("title: %s\n", quoteScalar(fm.Title)))
	if fm.Type != "" {
		sb.WriteString(fmt.Sprintf("type: %s\n", fm.Type))
	}
	if fm.RootCause != "" {
		sb.WriteString(fmt.Sprintf("rootCause: %s\n", quoteScalar(fm.RootCause)))
	}
	sb.WriteString(fmt.Sprintf("measures: %s\n", formatYAMLArray(fm.Measures)))
	if fm.Notes != "" {
		sb.WriteString(fmt.Sprintf("notes: %s\n", quoteScalar(fm.Notes)))
	}
	if len(fm.Images) > 0 {
		sb.WriteString(fmt.Sprintf("images: %s\n", formatYAMLArray(fm.Images)))
	}

	sb.WriteString("---")

	return sb.String()
}

// BuildContent combines frontmatter and body content into a complete document
func BuildContent(fm *Frontmatter, bodyContent string) string {
	frontmatterStr := Build(fm)

	// Ensure proper spacing between frontmatter and body
	if !strings.HasPrefix(bodyContent, "\n") {
		return frontmatterStr + "\n\n" + bodyContent
	}
	return frontmatterStr + "\n" + bodyContent
}

// formatYAMLArray formats a string slice as a YAML flow-style array
func formatYAMLArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}

	quotedItems := make([]string, len(items))
	for i, item := range items {
		if needsQuoting(item) {
			quotedItems[i] = fmt.Sprintf("%q", item)
		} else {
			quotedItems[i] = item
		}
	}

	return fmt.Sprintf("[%s]", strings.Join(quotedItems, ", "))
}

func quoteScalar(s string) string {
	if needsQuoting(s) || strings.HasPrefix(s, "-") || strings.TrimSpace(s) != s {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// needsQuoting checks if a string needs to be quoted in YAML
func needsQuoting(s string) bool {
	return strings.ContainsAny(s, ",:[]{}\"'#&*!|>%@`\n")
}
