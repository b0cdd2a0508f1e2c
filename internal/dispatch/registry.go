package dispatch

import (
	"context"
	"fmt"
	"sort"
)

// NoMatchAnswer is what the fallback handler answers.
const NoMatchAnswer = "No matching function found"

// Registry maps handler keys to registered handlers. Register is meant for
// startup; after that the registry is only read and is safe for concurrent use.
type Registry struct {
	handlers map[string]*Handler
	fallback *Handler
}

// NewRegistry returns an empty registry with the default no-match fallback.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]*Handler),
		fallback: &Handler{
			Descriptor: Descriptor{Key: "no_match", Summary: "Answer when no handler is registered for a question."},
			fn: func(context.Context, *Call) (any, error) {
				return NoMatchAnswer, nil
			},
		},
	}
}

// Register adds a handler under d.Key.
func (r *Registry) Register(d Descriptor, fn Func) error {
	if d.Key == "" {
		return fmt.Errorf("handler key is required")
	}
	if fn == nil {
		return fmt.Errorf("handler %s: nil func", d.Key)
	}
	if _, dup := r.handlers[d.Key]; dup {
		return fmt.Errorf("handler %s already registered", d.Key)
	}
	if d.AcceptsFile && len(d.Params) == 0 {
		return fmt.Errorf("handler %s: accepts a file but declares no parameters", d.Key)
	}
	seen := map[string]bool{}
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("handler %s: parameter with empty name", d.Key)
		}
		if seen[p.Name] {
			return fmt.Errorf("handler %s: duplicate parameter %q", d.Key, p.Name)
		}
		seen[p.Name] = true
	}
	d.Params = append([]Param(nil), d.Params...)
	r.handlers[d.Key] = &Handler{Descriptor: d, fn: fn}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor, fn Func) {
	if err := r.Register(d, fn); err != nil {
		panic(err)
	}
}

// Resolve returns the handler registered under key.
func (r *Registry) Resolve(key string) (*Handler, error) {
	h, ok := r.handlers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, key)
	}
	return h, nil
}

// Fallback returns the handler used when Resolve fails.
func (r *Registry) Fallback() *Handler { return r.fallback }

// Descriptors returns every registered descriptor sorted by key.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
