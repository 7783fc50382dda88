package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// FileSource reads collections from a directory. Source ids are slash-separated paths
// relative to the directory; an id without an extension names a .json file.
type FileSource struct {
	root string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) (*FileSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return &FileSource{root: abs}, nil
}

// Root returns the directory the source reads from.
func (s *FileSource) Root() string {
	return s.root
}

// Resolve maps a source id to a file path inside the root.
func (s *FileSource) Resolve(id string) (string, error) {
	name := ResolveName(id)
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("empty source id")
	}
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("source id %q escapes data dir", id)
	}
	return full, nil
}

// ResolveName appends the default .json extension to bare ids.
func ResolveName(id string) string {
	if path.Ext(id) == "" {
		return id + ".json"
	}
	return id
}

func (s *FileSource) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{SourceID: id, Err: err}
	}
	p, err := s.Resolve(id)
	if err != nil {
		return nil, &FetchError{SourceID: id, Status: 400, Err: err}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{SourceID: id, Status: 404, Err: fmt.Errorf("%w: %s", ErrNotFound, p)}
		}
		return nil, &FetchError{SourceID: id, Err: err}
	}
	return Decode(id, data, FormatFor(p))
}

// Collections lists the collection files below the root as source ids.
func (s *FileSource) Collections() ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".yaml", ".yml", ".md", ".markdown":
			rel, err := filepath.Rel(s.root, p)
			if err != nil {
				return err
			}
			ids = append(ids, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk data dir: %w", err)
	}
	return ids, nil
}
