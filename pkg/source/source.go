// Package source provides the data sources a fault tree is loaded from and the session
// cache that sits in front of them.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Source fetches a named collection of node descriptors.
type Source interface {
	Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error)
}

// Func adapts a plain function to the Source interface.
type Func func(ctx context.Context, id string) ([]*tree.Descriptor, error)

func (f Func) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	return f(ctx, id)
}

// Options configures Open.
type Options struct {
	Timeout time.Duration
}

// Open picks a Source implementation for location: an http(s) URL, a sqlite bundle
// (.db, .sqlite) or a directory.
func Open(location string, opts Options) (Source, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, opts.Timeout), nil
	case isBundlePath(location):
		return OpenBundle(location)
	default:
		return NewFileSource(location)
	}
}

func isBundlePath(location string) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Closer is implemented by sources holding resources.
type Closer interface {
	Close() error
}

// Close releases src's resources if it holds any.
func Close(src Source) error {
	if c, ok := src.(Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close source: %w", err)
		}
	}
	return nil
}
