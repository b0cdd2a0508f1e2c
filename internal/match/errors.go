package match

import "errors"

// ErrEmptyCatalog is returned when a matcher is built over, or queried with, no entries.
var ErrEmptyCatalog = errors.New("catalog has no entries")
