package dispatch

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Param declares one handler parameter.
type Param struct {
	Name        string
	Type        string // JSON schema type: string, integer, number, boolean, array, object
	Description string
	Required    bool
}

// Descriptor declares a handler's calling signature. It replaces runtime
// signature inspection: the engine picks a calling convention from it alone.
type Descriptor struct {
	Key     string
	Summary string
	Params  []Param
	// AcceptsFile marks Params[0] as the uploaded file path. That parameter
	// is filled by the engine and hidden from the extraction schema.
	AcceptsFile bool
}

// Arity returns the number of declared parameters.
func (d Descriptor) Arity() int { return len(d.Params) }

// Schema is the function definition handed to the parameter extractor.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Schema describes the parameters the extractor should fill in.
func (d Descriptor) Schema() Schema {
	params := d.Params
	if d.AcceptsFile && len(params) > 0 {
		params = params[1:]
	}
	props := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		prop := map[string]any{"type": typ}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return Schema{
		Name:        d.Key,
		Description: d.Summary,
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// Func is a handler implementation.
type Func func(ctx context.Context, call *Call) (any, error)

// Handler is a registered procedure and its descriptor.
type Handler struct {
	Descriptor
	fn Func
}

// Convention names the calling convention the engine chose.
type Convention string

const (
	// ConventionNone calls a zero-parameter handler with nothing.
	ConventionNone Convention = "none"
	// ConventionFileFirst passes the file path first, then the extracted arguments.
	ConventionFileFirst Convention = "file-first"
	// ConventionSpread passes only the extracted arguments.
	ConventionSpread Convention = "spread"
)

// Call carries the arguments a handler was invoked with.
type Call struct {
	Convention Convention
	Positional []any
	Keyword    map[string]any

	bound map[string]any
}

// Value returns the argument bound to the named parameter.
func (c *Call) Value(name string) (any, bool) {
	v, ok := c.bound[name]
	return v, ok
}

// Bound returns a copy of the parameter-name → value binding.
func (c *Call) Bound() map[string]any {
	out := make(map[string]any, len(c.bound))
	for k, v := range c.bound {
		out[k] = v
	}
	return out
}

// Text returns the named argument as a string. Numbers and booleans are formatted.
func (c *Call) Text(name string) (string, error) {
	v, ok := c.bound[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing argument %q", name)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("argument %q: expected string, got %T", name, v)
	}
}

// Int returns the named argument as an int. Whole floats and numeric strings are accepted.
func (c *Call) Int(name string) (int, error) {
	v, ok := c.bound[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("argument %q: %v is not an integer", name, t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q: expected integer, got %T", name, v)
	}
}

// TextOr returns the named argument as a string, or def when it is absent.
func (c *Call) TextOr(name, def string) (string, error) {
	if v, ok := c.bound[name]; !ok || v == nil {
		return def, nil
	}
	return c.Text(name)
}
