package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags the shape of an argument bundle.
type Kind int

const (
	KindEmpty Kind = iota
	KindPositional
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindPositional:
		return "positional"
	case KindKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Arguments is an extracted argument bundle: empty, an ordered list, or a
// name→value map. The zero value is Empty.
type Arguments struct {
	kind       Kind
	positional []any
	keyword    map[string]any
}

// Empty returns an argument bundle with nothing in it.
func Empty() Arguments { return Arguments{} }

// Positional returns an ordered argument bundle.
func Positional(values ...any) Arguments {
	return Arguments{kind: KindPositional, positional: append([]any(nil), values...)}
}

// Keyword returns a named argument bundle. A nil map is treated as an empty one.
func Keyword(values map[string]any) Arguments {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Arguments{kind: KindKeyword, keyword: m}
}

// Kind reports the bundle's shape.
func (a Arguments) Kind() Kind { return a.kind }

// Values returns the positional values, or nil for other kinds.
func (a Arguments) Values() []any {
	if a.kind != KindPositional {
		return nil
	}
	return append([]any(nil), a.positional...)
}

// Map returns the keyword values, or nil for other kinds.
func (a Arguments) Map() map[string]any {
	if a.kind != KindKeyword {
		return nil
	}
	m := make(map[string]any, len(a.keyword))
	for k, v := range a.keyword {
		m[k] = v
	}
	return m
}

func (a Arguments) String() string {
	switch a.kind {
	case KindPositional:
		return fmt.Sprintf("positional%v", a.positional)
	case KindKeyword:
		return fmt.Sprintf("keyword%v", a.keyword)
	default:
		return "empty"
	}
}

// ParseJSON converts a JSON document into Arguments: an object becomes
// Keyword, an array Positional, null or blank input Empty, and any other
// scalar a single positional value.
func ParseJSON(raw []byte) (Arguments, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Empty(), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Empty(), fmt.Errorf("invalid arguments JSON: %w", err)
	}
	switch t := v.(type) {
	case nil:
		return Empty(), nil
	case map[string]any:
		return Keyword(t), nil
	case []any:
		return Positional(t...), nil
	default:
		return Positional(t), nil
	}
}
