package tree

// NodeType categorizes the entries of a fault tree collection.
type NodeType string

const (
	TypeFolder NodeType = "folder" // May have children, inline or behind a source reference
	TypePage   NodeType = "page"   // Leaf carrying diagnostic content
)

// Descriptor is a node as it appears in a data source collection. Descriptors are shared
// between every Node materialized from them and are never mutated after decoding.
type Descriptor struct {
	Title     string        `json:"title" yaml:"title" validate:"required"`
	Type      NodeType      `json:"type" yaml:"type" validate:"required,oneof=folder page"`
	Children  []*Descriptor `json:"children,omitempty" yaml:"children,omitempty"`
	Source    string        `json:"source,omitempty" yaml:"source,omitempty"`
	RootCause string        `json:"rootCause,omitempty" yaml:"rootCause,omitempty"`
	Measures  []string      `json:"measures,omitempty" yaml:"measures,omitempty"`
	Content   string        `json:"content,omitempty" yaml:"content,omitempty"`
	Notes     string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Images    []string      `json:"images,omitempty" yaml:"images,omitempty"`
}

// IsFolder reports whether the descriptor describes a folder.
func (d *Descriptor) IsFolder() bool {
	return d.Type == TypeFolder
}

// HasInlineChildren reports whether a folder carries its children directly.
// A present but empty children array still counts as inline.
func (d *Descriptor) HasInlineChildren() bool {
	return d.Children != nil
}

// HasContent reports whether a page has anything to display.
func (d *Descriptor) HasContent() bool {
	return d.RootCause != "" || len(d.Measures) > 0 || d.Content != ""
}
