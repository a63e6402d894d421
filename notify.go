package mcp

import (
	"context"
	"sync"
)

// notifyFunc is the type-erased shape of a registered notification handler.
type notifyFunc func(ctx context.Context, n *Notification)

// A NotificationRegistry holds ordered lists of handlers per notification
// name. Handlers for a given name run in registration order and return
// nothing; a handler that panics has the panic recovered and logged, and the
// remaining handlers still run, since a notification has no Response to
// carry a failure back to the sender. A handler whose params do not decode
// into its parameter type is skipped without a log line.
type NotificationRegistry struct {
	mu     sync.Mutex
	byName map[string][]notifyFunc
}

// NewNotificationRegistry returns an empty NotificationRegistry.
func NewNotificationRegistry() *NotificationRegistry {
	return &NotificationRegistry{byName: make(map[string][]notifyFunc)}
}

// RegisterNotification appends fn as a handler for notification name on reg.
// As with RegisterMethod, this must be a package-level generic function: Go
// has no generic methods, so the parameter type P is inferred here instead
// of on NotificationRegistry itself.
func RegisterNotification[P any](reg *NotificationRegistry, name string, fn func(context.Context, P)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byName[name] = append(reg.byName[name], func(ctx context.Context, n *Notification) {
		var params P
		if err := n.UnmarshalParams(&params); err != nil {
			return
		}
		fn(ctx, params)
	})
}

// dispatch runs every handler registered for n.Method(), in registration
// order, against a snapshot of the handler list taken under lock so that a
// handler registering another handler mid-dispatch cannot deadlock or race.
func (reg *NotificationRegistry) dispatch(ctx context.Context, n *Notification, logf func(string, ...any)) {
	reg.mu.Lock()
	handlers := append([]notifyFunc(nil), reg.byName[n.Method()]...)
	reg.mu.Unlock()

	if len(handlers) == 0 {
		if logf != nil {
			logf("mcp: no handlers for notification %q", n.Method())
		}
		return
	}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil && logf != nil {
					logf("mcp: notification handler for %q panicked: %v", n.Method(), r)
				}
			}()
			h(ctx, n)
		}()
	}
}
