package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Load reads a catalog from a JSON file of the form
//
//	{"<key>": {"description": "...", "handler": "..."}, ...}
//
// Object order in the file becomes catalog order.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Cause: ErrSourceMissing, Err: err}
		}
		return nil, &LoadError{Path: path, Cause: ErrSourceUnreadable, Err: err}
	}
	c, err := Parse(bytes.NewReader(b))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return c, nil
}

type rawEntry struct {
	Description *string `json:"description"`
	Handler     string  `json:"handler"`
}

// Parse decodes a catalog from r, preserving object key order.
func Parse(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Cause: ErrSourceEmpty}
		}
		return nil, malformed(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformed(fmt.Errorf("top level must be an object, got %v", tok))
	}

	var entries []Entry
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed(err)
		}
		key, _ := tok.(string)
		var raw rawEntry
		if err := dec.Decode(&raw); err != nil {
			return nil, malformed(fmt.Errorf("entry %q: %w", key, err))
		}
		if raw.Description == nil || strings.TrimSpace(*raw.Description) == "" {
			return nil, malformed(fmt.Errorf("entry %q: missing description", key))
		}
		if seen[key] {
			return nil, malformed(fmt.Errorf("duplicate key %q", key))
		}
		seen[key] = true
		entries = append(entries, Entry{Key: key, Description: *raw.Description, Handler: raw.Handler})
	}
	if _, err := dec.Token(); err != nil {
		return nil, malformed(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed(fmt.Errorf("trailing data after catalog object"))
	}

	if len(entries) == 0 {
		return nil, &LoadError{Cause: ErrSourceEmpty}
	}
	c, err := New(entries)
	if err != nil {
		return nil, malformed(err)
	}
	return c, nil
}

func malformed(err error) error {
	return &LoadError{Cause: ErrSourceMalformed, Err: err}
}
