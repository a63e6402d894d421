package mcp

import (
	"context"
	"sync"

	"github.com/mcpkit/mcpcore/metrics"
)

// a pendingCall is one outstanding request awaiting its Response. resume is
// a type-erased continuation: it decodes the raw result of the matching
// Response into the caller's statically-typed result channel, preserving
// the generic type information that was available at Call's call site but
// is erased once the call is parked in the pending table.
type pendingCall struct {
	method string
	resume func(result Value, rpcErr *Error)
}

// pendingTable is the client-side store of requests sent but not yet
// answered, keyed by the string form of their id.
type pendingTable struct {
	mu      sync.Mutex
	entries map[any]*pendingCall
	closed  bool
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[any]*pendingCall)}
}

// register records a pending call for id, or reports ok=false if the table
// has already been drained (the client is disconnected).
func (t *pendingTable) register(id ID, call *pendingCall) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.entries[id.key()] = call
	return true
}

// resolve delivers a Response to its matching pending call, if any is still
// outstanding. It reports whether a match was found.
func (t *pendingTable) resolve(id ID, result Value, rpcErr *Error) bool {
	t.mu.Lock()
	call, ok := t.entries[id.key()]
	if ok {
		delete(t.entries, id.key())
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	call.resume(result, rpcErr)
	return true
}

// remove discards the pending call for id, if any, without resuming it.
// It is used to back out a registration whose request never made it onto
// the wire.
func (t *pendingTable) remove(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id.key())
}

// drain fails every still-outstanding call with err and marks the table
// closed, so that any later register call fails fast instead of leaking a
// goroutine waiting on a response that will never arrive.
func (t *pendingTable) drain(err error) {
	t.mu.Lock()
	t.closed = true
	entries := t.entries
	t.entries = make(map[any]*pendingCall)
	t.mu.Unlock()

	e := wrapError(err)
	for _, call := range entries {
		call.resume(nil, e)
	}
}

// Call issues a typed request over the client's transport and blocks until
// its Response arrives, ctx is cancelled, or the client disconnects. It is
// the primitive underneath the Client's high-level helpers, exposed so
// that embedders can invoke methods the core does not know about. R is
// inferred at the call site; see RegisterMethod for why this must be a
// package-level function rather than a method.
//
// If the transport rejects the request outright, the call is withdrawn
// from the pending table before Call returns.
func Call[P, R any](ctx context.Context, c *Client, method string, params P) (R, error) {
	var zero R

	paramsValue, err := ValueOf(params)
	if err != nil {
		return zero, err
	}

	id := c.ids.Next()
	resultCh := make(chan R, 1)
	errCh := make(chan error, 1)

	ok := c.pending.register(id, &pendingCall{
		method: method,
		resume: func(result Value, rpcErr *Error) {
			if rpcErr != nil {
				errCh <- rpcErr
				return
			}
			var out R
			if err := result.Decode(&out); err != nil {
				errCh <- &TypeMismatchError{Method: method, Err: err}
				return
			}
			resultCh <- out
		},
	})
	if !ok {
		return zero, ErrConnClosed
	}
	c.opts.metrics().Count(metrics.Requests, 1)

	req := NewRequest(id, method, paramsValue)
	if err := c.send(ctx, req.toFrame()); err != nil {
		c.pending.remove(id)
		return zero, err
	}

	select {
	case r := <-resultCh:
		return r, nil
	case err := <-errCh:
		return zero, err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
