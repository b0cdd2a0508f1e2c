package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnknownHandler is returned by Resolve for keys with no registered handler.
var ErrUnknownHandler = errors.New("unknown handler")

// ErrBadCall reports arguments that do not fit the handler's declared parameters.
var ErrBadCall = errors.New("arguments do not match handler parameters")

// HandlerExecutionError wraps any failure raised while running a handler,
// including argument binding failures and panics.
type HandlerExecutionError struct {
	Handler string
	Err     error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("handler %s failed: %v", e.Handler, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }

// Message returns the handler's own error message without the wrapper prefix.
func (e *HandlerExecutionError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
