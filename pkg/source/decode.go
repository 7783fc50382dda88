package source

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-faulttree/pkg/frontmatter"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Format is the encoding of a collection document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatMarkdown // a single page with YAML frontmatter
)

// FormatFor guesses a document format from a source id or file name.
func FormatFor(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

var descriptorValidate *validator.Validate

func init() {
	descriptorValidate = validator.New()
	descriptorValidate.RegisterStructValidation(descriptorShape, tree.Descriptor{})
}

// descriptorShape enforces the folder/page field rules that tags cannot express.
func descriptorShape(sl validator.StructLevel) {
	d := sl.Current().Interface().(tree.Descriptor)
	switch d.Type {
	case tree.TypeFolder:
		if d.Children != nil && d.Source != "" {
			sl.ReportError(d.Source, "Source", "source", "excluded_with_children", "")
		}
	case tree.TypePage:
		if d.Children != nil {
			sl.ReportError(d.Children, "Children", "children", "excluded_on_page", "")
		}
		if d.Source != "" {
			sl.ReportError(d.Source, "Source", "source", "excluded_on_page", "")
		}
	}
}

// Decode parses a collection document and validates every descriptor in it.
func Decode(id string, data []byte, format Format) ([]*tree.Descriptor, error) {
	var descs []*tree.Descriptor
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &descs)
	case FormatMarkdown:
		descs, err = decodeMarkdown(data)
	default:
		err = json.Unmarshal(data, &descs)
	}
	if err != nil {
		return nil, &ParseError{SourceID: id, Err: err}
	}
	if descs == nil {
		// "null" and an empty YAML document both mean an empty collection.
		descs = []*tree.Descriptor{}
	}
	if err := Validate(descs); err != nil {
		return nil, &ParseError{SourceID: id, Err: err}
	}
	return descs, nil
}

func decodeMarkdown(data []byte) ([]*tree.Descriptor, error) {
	fm, body, err := frontmatter.Parse(string(data))
	if err != nil {
		return nil, err
	}
	if fm == nil {
		return nil, fmt.Errorf("markdown page has no frontmatter")
	}
	return []*tree.Descriptor{fm.Descriptor(body)}, nil
}

// Validate checks a descriptor list recursively.
func Validate(descs []*tree.Descriptor) error {
	return validateList("", descs)
}

func validateList(prefix string, descs []*tree.Descriptor) error {
	for i, d := range descs {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		if d == nil {
			return fmt.Errorf("%s: entry is null", at)
		}
		if err := descriptorValidate.Struct(d); err != nil {
			return fmt.Errorf("%s (%q): %w", at, d.Title, err)
		}
		if err := validateList(at+".children", d.Children); err != nil {
			return err
		}
	}
	return nil
}
