package privmsg

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// parseReadStatus maps the read_status token to the read flag.
// The mapping is inverted for compatibility with existing clients:
// "true" clears the read flag and "false" sets it.
func parseReadStatus(token string) (read bool, err error) {
	switch token {
	case "true":
		return false, nil
	case "false":
		return true, nil
	default:
		return false, badInput(msgInvalidReadState)
	}
}

// UpdateReadStatus sets the read flag of a received message.
// The token is validated before the caller's access is checked.
func (m *userMessages) UpdateReadStatus(ctx context.Context, id int64, readStatus string) (*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "privmsg.update_read_status",
		attribute.String("user_id", m.userID),
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		m.service.otel.recordUpdate(ctx, time.Since(start), "read_status", opErr)
	}()

	msg, err := m.load(ctx, id)
	if err != nil {
		opErr = err
		return nil, err
	}
	read, err := parseReadStatus(readStatus)
	if err != nil {
		opErr = err
		return nil, err
	}
	if err := Authorize(m.userID, msg, OpUpdateReadStatus); err != nil {
		opErr = err
		return nil, err
	}

	updated, err := m.service.store.MarkRead(ctx, id, read)
	if err != nil {
		opErr = fmt.Errorf("mark read: %w", err)
		return nil, opErr
	}

	s := m.service
	publish(ctx, s.opts, "MessageRead", s.events.MessageRead, MessageReadEvent{
		EventID:   newEventID(),
		MessageID: updated.ID,
		UserID:    m.userID,
		Read:      updated.Read,
		At:        s.opts.clock.Now(),
	})
	return updated, nil
}

// Destroy clears the caller's own visibility flag. The message stays
// visible to the other party and is never removed from the store.
// Destroying an already hidden message succeeds without change.
func (m *userMessages) Destroy(ctx context.Context, id int64) (*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "privmsg.destroy",
		attribute.String("user_id", m.userID),
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		m.service.otel.recordUpdate(ctx, time.Since(start), "destroy", opErr)
	}()

	msg, err := m.load(ctx, id)
	if err != nil {
		opErr = err
		return nil, err
	}
	if err := Authorize(m.userID, msg, OpDestroy); err != nil {
		opErr = err
		return nil, err
	}
	party, _ := PartyOf(m.userID, msg)

	updated, err := m.service.store.SetVisible(ctx, id, party, false)
	if err != nil {
		opErr = fmt.Errorf("hide message: %w", err)
		return nil, opErr
	}

	if msg.VisibleTo(party) {
		s := m.service
		publish(ctx, s.opts, "MessageHidden", s.events.MessageHidden, MessageHiddenEvent{
			EventID:   newEventID(),
			MessageID: updated.ID,
			UserID:    m.userID,
			Party:     party.String(),
			At:        s.opts.clock.Now(),
		})
	}
	return updated, nil
}
