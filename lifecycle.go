package mcp

import (
	"fmt"
	"sync"
)

// sessionState is the lifecycle state of one end of a session, from the
// initialize handshake through to teardown.
type sessionState int

const (
	// stateFresh is the state of a session before any initialize exchange
	// has begun.
	stateFresh sessionState = iota
	// stateInitializing is the state between receiving (server) or sending
	// (client) an initialize request and the handshake completing.
	stateInitializing
	// stateInitialized is the steady-state, fully operational state.
	stateInitialized
	// stateTerminated is the final state once the session has been torn
	// down; allow rejects every method and notification in it.
	stateTerminated
)

func (s sessionState) String() string {
	switch s {
	case stateFresh:
		return "fresh"
	case stateInitializing:
		return "initializing"
	case stateInitialized:
		return "initialized"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// lifecycle guards a session's state transitions and, in strict mode, gates
// which methods may run before initialization completes.
type lifecycle struct {
	mu     sync.Mutex
	state  sessionState
	strict bool
}

func newLifecycle(strict bool) *lifecycle {
	return &lifecycle{state: stateFresh, strict: strict}
}

func (lc *lifecycle) get() sessionState {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.state
}

// beginInitialize transitions fresh -> initializing. It fails if the
// session has already begun or finished initializing, since the initialize
// handshake may run at most once.
func (lc *lifecycle) beginInitialize() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.state != stateFresh {
		return fmt.Errorf("mcp: initialize called in state %s", lc.state)
	}
	lc.state = stateInitializing
	return nil
}

// finishInitialize transitions initializing -> initialized.
func (lc *lifecycle) finishInitialize() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.state == stateInitializing {
		lc.state = stateInitialized
	}
}

// terminate transitions unconditionally to stateTerminated.
func (lc *lifecycle) terminate() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.state = stateTerminated
}

// allow reports whether method may run given the current lifecycle state.
// In strict mode, only initialize, ping, and the initialized notification
// may run before the handshake has completed; in non-strict mode every
// method is allowed until the session terminates, matching a permissive
// peer that tolerates out-of-order traffic. In either mode a terminated
// session allows nothing.
func (lc *lifecycle) allow(method string) bool {
	lc.mu.Lock()
	state := lc.state
	strict := lc.strict
	lc.mu.Unlock()

	if !strict {
		return state != stateTerminated
	}
	switch state {
	case stateInitialized:
		return true
	case stateTerminated:
		return false
	default:
		return method == methodInitialize || method == methodPing || method == notificationInitialized
	}
}
