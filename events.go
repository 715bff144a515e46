package privmsg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rbaliyan/event/v3"
)

// Event names for message lifecycle events.
const (
	EventNameMessageCreated = "privmsg.message.created"
	EventNameMessageRead    = "privmsg.message.read"
	EventNameMessageHidden  = "privmsg.message.hidden"
)

// MessageCreatedEvent is published after a message is persisted.
// EventID lets consumers on at-least-once transports drop duplicates.
type MessageCreatedEvent struct {
	EventID     string    `json:"event_id"`
	MessageID   int64     `json:"message_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Muted       bool      `json:"muted"`
	SentOn      time.Time `json:"sent_on"`
}

// MessageReadEvent is published when the recipient changes the read flag.
type MessageReadEvent struct {
	EventID   string    `json:"event_id"`
	MessageID int64     `json:"message_id"`
	UserID    string    `json:"user_id"`
	Read      bool      `json:"read"`
	At        time.Time `json:"at"`
}

// MessageHiddenEvent is published when a party removes a message from their
// own listing.
type MessageHiddenEvent struct {
	EventID   string    `json:"event_id"`
	MessageID int64     `json:"message_id"`
	UserID    string    `json:"user_id"`
	Party     string    `json:"party"`
	At        time.Time `json:"at"`
}

// ServiceEvents provides access to per-service event instances.
// Each service creates its own events bound to its own event bus.
//
// Subscribe to events:
//
//	svc.Events().MessageCreated.Subscribe(ctx, handler)
//	svc.Events().MessageRead.Subscribe(ctx, handler)
//	svc.Events().MessageHidden.Subscribe(ctx, handler)
type ServiceEvents struct {
	MessageCreated event.Event[MessageCreatedEvent]
	MessageRead    event.Event[MessageReadEvent]
	MessageHidden  event.Event[MessageHiddenEvent]
}

// newServiceEvents creates per-service event instances with a unique name prefix.
func newServiceEvents(namePrefix string) *ServiceEvents {
	return &ServiceEvents{
		MessageCreated: event.New[MessageCreatedEvent](namePrefix + "." + EventNameMessageCreated),
		MessageRead:    event.New[MessageReadEvent](namePrefix + "." + EventNameMessageRead),
		MessageHidden:  event.New[MessageHiddenEvent](namePrefix + "." + EventNameMessageHidden),
	}
}

// registerServiceEvents registers per-service events with the given bus.
func registerServiceEvents(ctx context.Context, bus *event.Bus, events *ServiceEvents) error {
	if err := event.Register(ctx, bus, events.MessageCreated); err != nil {
		return fmt.Errorf("register MessageCreated: %w", err)
	}
	if err := event.Register(ctx, bus, events.MessageRead); err != nil {
		return fmt.Errorf("register MessageRead: %w", err)
	}
	if err := event.Register(ctx, bus, events.MessageHidden); err != nil {
		return fmt.Errorf("register MessageHidden: %w", err)
	}
	return nil
}

func newEventID() string {
	return uuid.NewString()
}

// publish sends data on ev and routes failures to the configured handler.
// The operation that triggered the event has already succeeded.
func publish[T any](ctx context.Context, o *options, name string, ev event.Event[T], data T) {
	if err := ev.Publish(ctx, data); err != nil {
		o.safeEventPublishFailure(name, err)
	}
}
