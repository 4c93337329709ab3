package assignment

import (
	"context"

	"courier-dispatch/internal/ports/dispatchtx"
)

// txRunner runs a function inside a storage transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) error
}

// publisher is the capability the coordinator needs from the notification
// layer: fire-and-forget topic publishing, never a concrete transport.
type publisher interface {
	Publish(topic, event string, payload any)
}
