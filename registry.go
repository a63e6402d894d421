package mcp

import (
	"context"

	"github.com/mcpkit/mcpcore/code"
)

// methodFunc is the type-erased shape every registered handler is reduced
// to: decode the request's raw params, invoke the user's typed function, and
// re-encode its typed result (or classify its error) back to the wire.
type methodFunc func(ctx context.Context, req *Request) (Value, error)

// A MethodRegistry holds the request handlers of a Server or Client peer,
// keyed by method name. The zero value is not usable; construct one with
// NewMethodRegistry.
type MethodRegistry struct {
	byName map[string]methodFunc
}

// NewMethodRegistry returns an empty MethodRegistry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{byName: make(map[string]methodFunc)}
}

// RegisterMethod binds fn as the handler for method name on reg. Go has no
// generic methods, so RegisterMethod is a package-level generic function
// rather than a method on MethodRegistry: it infers P (the request's
// parameter type) and R (the result type) from fn, and stores a
// type-erased closure that performs the decode/invoke/encode sequence on
// reg's behalf.
//
// Registering the same name twice replaces the previous handler.
func RegisterMethod[P, R any](reg *MethodRegistry, name string, fn func(context.Context, P) (R, error)) {
	reg.byName[name] = func(ctx context.Context, req *Request) (Value, error) {
		var params P
		if err := req.UnmarshalParams(&params); err != nil {
			return nil, err
		}
		result, err := fn(ctx, params)
		if err != nil {
			return nil, err
		}
		return ValueOf(result)
	}
}

// Unregister removes the handler for name, if any.
func (reg *MethodRegistry) Unregister(name string) {
	delete(reg.byName, name)
}

// Lookup reports whether a handler is registered for name.
func (reg *MethodRegistry) Lookup(name string) (methodFunc, bool) {
	fn, ok := reg.byName[name]
	return fn, ok
}

// dispatch invokes the handler registered for req.Method(), converting an
// unregistered method or handler error into the appropriate *Error.
func (reg *MethodRegistry) dispatch(ctx context.Context, req *Request) (Value, *Error) {
	fn, ok := reg.byName[req.Method()]
	if !ok {
		return nil, Errorf(code.MethodNotFound, "Unknown method: %s", req.Method())
	}
	result, err := fn(ctx, req)
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}
