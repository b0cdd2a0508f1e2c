// Package dispatch invokes registered handlers with arguments extracted from
// free text, choosing the calling convention from each handler's descriptor.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"
)

// Observer receives one report per invocation.
type Observer interface {
	ObserveDispatch(handler string, convention Convention, err error, elapsed time.Duration)
}

// Engine invokes handlers. It holds no per-request state.
type Engine struct {
	logger   *slog.Logger
	observer Observer
}

// NewEngine returns an engine logging to logger (slog.Default when nil) and
// reporting to obs (may be nil).
func NewEngine(logger *slog.Logger, obs Observer) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, observer: obs}
}

// Prepare builds the call for h without running it.
//
//   - zero parameters: nothing is passed, args and filePath are dropped
//   - file present: filePath first, then args (keywords or extra positionals)
//   - otherwise: args only
//
// Arguments that cannot be bound to the declared parameters yield ErrBadCall.
func Prepare(d Descriptor, args Arguments, filePath string) (*Call, error) {
	call := &Call{Keyword: map[string]any{}}
	switch {
	case d.Arity() == 0:
		call.Convention = ConventionNone
		call.bound = map[string]any{}
		return call, nil
	case filePath != "":
		call.Convention = ConventionFileFirst
		call.Positional = append(call.Positional, filePath)
	default:
		call.Convention = ConventionSpread
	}

	switch args.Kind() {
	case KindKeyword:
		call.Keyword = args.Map()
	case KindPositional:
		call.Positional = append(call.Positional, args.Values()...)
	}

	bound, err := bind(d, call.Positional, call.Keyword)
	if err != nil {
		return call, err
	}
	call.bound = bound
	return call, nil
}

// Invoke runs h with args and the optional filePath. Any failure, including a
// panic inside the handler, is returned as *HandlerExecutionError.
func (e *Engine) Invoke(ctx context.Context, h *Handler, args Arguments, filePath string) (any, error) {
	start := time.Now()
	call, err := Prepare(h.Descriptor, args, filePath)
	var answer any
	if err == nil {
		answer, err = e.run(ctx, h, call)
	}
	elapsed := time.Since(start)

	if e.observer != nil {
		e.observer.ObserveDispatch(h.Key, call.Convention, err, elapsed)
	}
	if err != nil {
		e.logger.Error("handler failed",
			"handler", h.Key,
			"convention", call.Convention,
			"args", args.Kind().String(),
			"elapsed", elapsed,
			"error", err,
		)
		return nil, &HandlerExecutionError{Handler: h.Key, Err: err}
	}
	e.logger.Debug("handler invoked",
		"handler", h.Key,
		"convention", call.Convention,
		"args", args.Kind().String(),
		"elapsed", elapsed,
	)
	return answer, nil
}

func (e *Engine) run(ctx context.Context, h *Handler, call *Call) (answer any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked", "handler", h.Key, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.fn(ctx, call)
}

// bind assigns positionals in declaration order and keywords by name.
func bind(d Descriptor, pos []any, kw map[string]any) (map[string]any, error) {
	if len(pos) > len(d.Params) {
		return nil, fmt.Errorf("%w: %s takes %d positional arguments but %d were given",
			ErrBadCall, d.Key, len(d.Params), len(pos))
	}
	bound := make(map[string]any, len(pos)+len(kw))
	for i, v := range pos {
		bound[d.Params[i].Name] = v
	}

	names := make([]string, 0, len(kw))
	for k := range kw {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if !declares(d, k) {
			return nil, fmt.Errorf("%w: %s got an unexpected keyword argument %q", ErrBadCall, d.Key, k)
		}
		if _, dup := bound[k]; dup {
			return nil, fmt.Errorf("%w: %s got multiple values for argument %q", ErrBadCall, d.Key, k)
		}
		bound[k] = kw[k]
	}

	for _, p := range d.Params {
		if _, ok := bound[p.Name]; !ok && p.Required {
			return nil, fmt.Errorf("%w: %s missing required argument %q", ErrBadCall, d.Key, p.Name)
		}
	}
	return bound, nil
}

func declares(d Descriptor, name string) bool {
	for _, p := range d.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}
