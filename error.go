package mcp

import (
	"errors"
	"fmt"

	"github.com/mcpkit/mcpcore/code"
)

// Error is the concrete type of errors returned from RPC calls, and the JSON
// encoding of a JSON-RPC error object.
type Error struct {
	Code    code.Code `json:"code"`
	Message string    `json:"message,omitempty"`
	Data    Value     `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("[%d] %s", e.Code, e.Message) }

// ErrCode implements code.ErrCoder so that code.FromError recovers e's code
// even after e has been wrapped by fmt.Errorf("%w", ...).
func (e *Error) ErrCode() code.Code { return e.Code }

// WithData returns a copy of e whose Data field holds the JSON encoding of
// v. If v is nil or cannot be marshaled, e is returned unchanged.
func (e *Error) WithData(v any) *Error {
	if v == nil {
		return e
	}
	data, err := ValueOf(v)
	if err != nil {
		return e
	}
	return &Error{Code: e.Code, Message: e.Message, Data: data}
}

// Errorf constructs an *Error with the given code and a formatted message.
func Errorf(c code.Code, format string, args ...any) *Error {
	return &Error{Code: c, Message: fmt.Sprintf(format, args...)}
}

// asError reports whether err is, or wraps, an *Error, and returns it.
func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// wrapError converts an arbitrary handler error into an *Error suitable for
// the wire: an existing *Error passes through unchanged; anything else is
// classified via code.FromError and wrapped as InternalError (or whatever
// more specific code FromError recovers, e.g. Cancelled).
func wrapError(err error) *Error {
	if e, ok := asError(err); ok {
		return e
	}
	return &Error{Code: code.FromError(err), Message: err.Error()}
}

var (
	// errClientStopped resolves every still-pending call when the client
	// disconnects before their responses arrive.
	errClientStopped = Errorf(code.InternalError, "client disconnected")

	// ErrConnClosed is returned by Call once the client has disconnected
	// and its pending-request table has been drained.
	ErrConnClosed = errors.New("mcp: connection is closed")
)

// TypeMismatchError is returned to a Client caller when a response result
// could not be decoded into the caller's requested Go type. It is a local,
// client-side condition and is never placed on the wire.
type TypeMismatchError struct {
	Method string
	Err    error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mcp: result type mismatch for %q: %v", e.Method, e.Err)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

func (e *TypeMismatchError) ErrCode() code.Code { return code.TypeMismatch }
