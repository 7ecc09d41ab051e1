// Package notify defines the outbound notification capability the watcher
// consumes.
package notify

import "context"

// Notifier delivers a text message to a single recipient. Implementations
// return a provider message id for logging on success. A failed send is
// non-fatal and independent per recipient; callers do not retry it within
// the same cycle.
type Notifier interface {
	Send(ctx context.Context, to, body string) (string, error)
}
