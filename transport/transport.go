// Package transport defines the pluggable byte-message channel that the mcp
// package's Server and Client use to exchange JSON-RPC frames, along with a
// couple of reference implementations.
//
// A Transport does not interpret the bytes it carries; it is responsible
// only for framing (so that each Send/Receive call corresponds to exactly
// one complete JSON-RPC frame) and for the connect/disconnect lifecycle.
package transport

import (
	"context"
	"fmt"
)

// A Transport represents one endpoint's exclusive ownership of a duplex byte
// channel to its peer, for the lifetime of one session.
type Transport interface {
	// Connect prepares the transport for use. It is called once, before the
	// first call to Send or Receive.
	Connect(ctx context.Context) error

	// Disconnect releases the underlying connection. After Disconnect
	// returns, further calls to Send or Receive must fail. Disconnect must
	// be safe to call more than once.
	Disconnect() error

	// Send transmits one complete frame.
	Send(ctx context.Context, msg []byte) error

	// Receive returns the next available frame, or an error. Receive
	// returns io.EOF when the peer has closed the connection in an orderly
	// way.
	Receive(ctx context.Context) ([]byte, error)

	// Logger returns the debug logger attached to this transport, or a
	// Logger that discards its input if none was configured.
	Logger() Logger
}

// A Logger records text debug logs from a transport implementation. A nil
// Logger discards its input.
type Logger func(string)

// Printf writes a formatted message to the logger. If lg == nil, the message
// is discarded.
func (lg Logger) Printf(format string, args ...any) {
	if lg != nil {
		lg(fmt.Sprintf(format, args...))
	}
}

// Temporary is satisfied by an error that represents a transient failure —
// the JSON-RPC dispatch loop should back off briefly and retry rather than
// tearing down the session. This mirrors the net.Error convention from the
// standard library.
type Temporary interface {
	Temporary() bool
}

// IsTemporary reports whether err describes a transient transport condition
// (analogous to EAGAIN) that a dispatch loop should retry rather than treat
// as fatal.
func IsTemporary(err error) bool {
	t, ok := err.(Temporary)
	return ok && t.Temporary()
}
