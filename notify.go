package privmsg

import (
	"context"

	"github.com/rbaliyan/privmsg/store"
)

// Notifier tells a recipient that a message arrived.
// Delivery is fire-and-forget: errors are logged by the service and never
// fail the create that triggered them.
type Notifier interface {
	Notify(ctx context.Context, msg *store.Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg *store.Message) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, msg *store.Message) error {
	return f(ctx, msg)
}
