// Package notify talks to the external push-notification registry.
// Devices are keyed by the user's email, the same opaque identity the
// rest of the system uses.
package notify

import "context"

type Registry interface {
	// Register subscribes the user's device. Failures are reported but
	// callers treat them as non-fatal: a reservation works without push.
	Register(ctx context.Context, email string) error

	Unregister(ctx context.Context, email string) error

	// UnreadCount fetches the user's unread notification count from the
	// registry's inbox.
	UnreadCount(ctx context.Context, email string) (int, error)
}
