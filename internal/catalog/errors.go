package catalog

import (
	"errors"
	"fmt"
)

// Load failure causes. A *LoadError matches exactly one of them with errors.Is.
var (
	ErrSourceMissing    = errors.New("catalog source not found")
	ErrSourceUnreadable = errors.New("catalog source unreadable")
	ErrSourceMalformed  = errors.New("catalog source malformed")
	ErrSourceEmpty      = errors.New("catalog source empty")
)

// ErrUnknownKey is returned by Lookup for keys not in the catalog.
var ErrUnknownKey = errors.New("unknown catalog key")

// LoadError reports why a catalog could not be loaded.
type LoadError struct {
	Path  string
	Cause error // one of the ErrSource* values
	Err   error // underlying error, may be nil
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load catalog %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("load catalog %s: %v: %v", e.Path, e.Cause, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.Err}
}
