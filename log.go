package mcp

import (
	"fmt"
	"log"
)

// Logger receives human-readable diagnostic lines from a Server or Client.
// A nil Logger discards them. This mirrors transport.Logger but is a
// distinct type: a peer's debug log is a session-lifecycle concern, while
// transport.Logger is scoped to the framing layer underneath it, and the
// two are frequently configured to different destinations.
type Logger func(string)

// Printf formats according to format and args and passes the result to lg,
// doing nothing if lg is nil.
func (lg Logger) Printf(format string, args ...any) {
	if lg != nil {
		lg(fmt.Sprintf(format, args...))
	}
}

// StdLogger adapts a *log.Logger to the Logger type.
func StdLogger(l *log.Logger) Logger {
	if l == nil {
		return nil
	}
	return func(s string) { l.Print(s) }
}
