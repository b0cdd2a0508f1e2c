// Package catalog holds the fixed set of known questions and the handler each
// one is answered by.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Entry is one known question.
type Entry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Handler     string `json:"handler"`
}

// Catalog is an immutable, ordered set of entries with unique keys.
type Catalog struct {
	entries []Entry
	byKey   map[string]int
}

// New builds a catalog from entries in the given order. An empty Handler
// defaults to the entry key.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("catalog entry with empty key")
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q", e.Key)
		}
		if e.Handler == "" {
			e.Handler = e.Key
		}
		c.byKey[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in insertion order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// At returns the entry at position i.
func (c *Catalog) At(i int) Entry { return c.entries[i] }

// Lookup returns the entry stored under key.
func (c *Catalog) Lookup(key string) (Entry, error) {
	i, ok := c.byKey[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.entries[i], nil
}

// Descriptions returns every description in insertion order.
func (c *Catalog) Descriptions() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Description
	}
	return out
}

// Fingerprint returns a sha256 (hex) over the canonical text of every entry.
// Two catalogs with the same entries in the same order share a fingerprint.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	for _, e := range c.entries {
		h.Write([]byte(canonicalText(e)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalText(e Entry) string {
	return strings.Join([]string{
		"key: " + e.Key,
		"handler: " + e.Handler,
		"description: " + strings.TrimSpace(e.Description),
	}, "\n")
}
