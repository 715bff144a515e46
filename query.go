package privmsg

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/privmsg/store"
	"go.opentelemetry.io/otel/attribute"
)

// Inbox lists the user's visible, unmuted received messages.
func (m *userMessages) Inbox(ctx context.Context, params ListParams) ([]*Message, error) {
	return m.list(ctx, BoxInbox, params)
}

// Outbox lists the user's visible, unmuted sent messages.
func (m *userMessages) Outbox(ctx context.Context, params ListParams) ([]*Message, error) {
	return m.list(ctx, BoxOutbox, params)
}

func (m *userMessages) list(ctx context.Context, box Box, params ListParams) ([]*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "privmsg.list",
		attribute.String("user_id", m.userID),
		attribute.String("box", box.String()),
	)
	start := time.Now()
	var listErr error
	var resultCount int
	defer func() {
		endSpan(listErr)
		m.service.otel.recordList(ctx, time.Since(start), box.String(), resultCount, listErr)
	}()

	filters, err := box.filters(m.userID)
	if err != nil {
		listErr = err
		return nil, err
	}

	page, err := Paginate(filters, params,
		m.service.opts.defaultQueryLimit, m.service.opts.maxQueryLimit)
	if err != nil {
		listErr = err
		return nil, err
	}

	msgs, err := m.service.store.Find(ctx, page.Filters, page.Options)
	if err != nil {
		listErr = fmt.Errorf("list %s: %w", box, err)
		return nil, listErr
	}
	resultCount = len(msgs)
	return msgs, nil
}

// Show returns a message the user is a party to. Visibility and mute flags
// do not apply to direct lookups.
func (m *userMessages) Show(ctx context.Context, id int64) (*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "privmsg.show",
		attribute.String("user_id", m.userID),
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var showErr error
	defer func() {
		endSpan(showErr)
		m.service.otel.recordShow(ctx, time.Since(start), showErr)
	}()

	msg, err := m.load(ctx, id)
	if err != nil {
		showErr = err
		return nil, err
	}
	if err := Authorize(m.userID, msg, OpShow); err != nil {
		showErr = err
		return nil, err
	}
	return msg, nil
}

// Box selects a listing.
type Box int

const (
	BoxInbox Box = iota + 1
	BoxOutbox
)

func (b Box) String() string {
	switch b {
	case BoxInbox:
		return "inbox"
	case BoxOutbox:
		return "outbox"
	default:
		return fmt.Sprintf("box(%d)", int(b))
	}
}

func (b Box) filters(userID string) ([]store.Filter, error) {
	switch b {
	case BoxInbox:
		return InboxFilters(userID), nil
	case BoxOutbox:
		return OutboxFilters(userID), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidBox, b)
	}
}
