package navigator

import "errors"

var (
	// ErrNotFound is returned when a title path does not name a node.
	ErrNotFound = errors.New("node not found")
	// ErrNotFolder is returned when a title path descends through a page.
	ErrNotFolder = errors.New("not a folder")
	// ErrLoadFailed is returned when a folder on a title path could not be expanded.
	ErrLoadFailed = errors.New("folder failed to load")
)
