package source

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by FetchError when a collection does not exist.
var ErrNotFound = errors.New("collection not found")

// FetchError reports a transport-level failure: unreachable host, non-2xx status,
// missing file or bundle row.
type FetchError struct {
	SourceID string
	Status   int // HTTP-style status, 0 when not applicable
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.SourceID, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a collection that was retrieved but could not be decoded or
// failed validation.
type ParseError struct {
	SourceID string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.SourceID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the collection does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
