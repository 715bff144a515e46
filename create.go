package privmsg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/privmsg/store"
	"go.opentelemetry.io/otel/attribute"
)

// CreateRequest is the caller input for a new message.
type CreateRequest struct {
	Title     string
	Body      string
	Recipient RecipientRef
}

// validate rejects blank titles and bodies.
func (r CreateRequest) validate() error {
	if isBlank(r.Title) {
		return badInput(msgNoTitle)
	}
	if isBlank(r.Body) {
		return badInput(msgNoBody)
	}
	return nil
}

// Create validates the request, resolves the recipient, applies the sender's
// rate limit and persists the message. Nothing is stored when any step fails.
// Notification and event failures are logged and do not fail the create.
// Notifications are delivered in the background; Create does not wait for them.
func (m *userMessages) Create(ctx context.Context, req CreateRequest) (*Message, error) {
	if err := m.checkAccess(); err != nil {
		return nil, err
	}

	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, endSpan := m.service.otel.startSpan(ctx, "privmsg.create",
		attribute.String("user_id", m.userID),
	)
	start := time.Now()
	var createErr error
	defer func() {
		endSpan(createErr)
		m.service.otel.recordCreate(ctx, time.Since(start), createErr)
	}()

	if err := m.service.createSem.Acquire(ctx, 1); err != nil {
		createErr = err
		return nil, err
	}
	defer m.service.createSem.Release(1)

	recipient, err := req.Recipient.resolve(ctx, m.service.directory)
	if err != nil {
		createErr = err
		return nil, err
	}

	sender, err := m.sender(ctx)
	if err != nil {
		createErr = err
		return nil, err
	}

	now := m.service.opts.clock.Now()
	if err := m.service.limiter.Allow(ctx, sender, now); err != nil {
		if errors.Is(err, ErrRateLimitExceeded) {
			m.service.otel.recordRateLimited(ctx)
		}
		createErr = err
		return nil, err
	}

	data := store.MessageData{
		SenderID:    m.userID,
		RecipientID: recipient.ID,
		SentOn:      now,
		Title:       req.Title,
		Body:        req.Body,
		BodyFormat:  BodyFormatMarkdown,
	}
	draft := data
	if err := m.service.plugins.beforeCreate(ctx, &draft); err != nil {
		createErr = err
		return nil, err
	}
	// Plugins may only mute; everything else is stored as requested.
	data.Muted = draft.Muted

	msg, err := m.service.store.Create(ctx, data)
	if err != nil {
		createErr = fmt.Errorf("create message: %w", err)
		return nil, createErr
	}

	m.afterCreate(ctx, msg, recipient)
	return msg, nil
}

// sender looks up the acting user for their quota. Users unknown to the
// directory get the configured default quota.
func (m *userMessages) sender(ctx context.Context) (*User, error) {
	u, err := m.service.directory.FindByID(ctx, m.userID)
	if err != nil {
		if store.IsNotFound(err) {
			m.service.logger.Debug("sender not in directory, using default quota", "user_id", m.userID)
			return &User{ID: m.userID}, nil
		}
		return nil, fmt.Errorf("find sender: %w", err)
	}
	if u == nil {
		return &User{ID: m.userID}, nil
	}
	return u, nil
}

// afterCreate runs the side effects of a persisted message.
func (m *userMessages) afterCreate(ctx context.Context, msg *Message, recipient *User) {
	s := m.service

	if s.recorder != nil {
		if err := s.recorder.RecordSent(ctx, msg); err != nil {
			s.logger.Warn("failed to record sent message", "message_id", msg.ID, "error", err)
		}
	}

	publish(ctx, s.opts, "MessageCreated", s.events.MessageCreated, MessageCreatedEvent{
		EventID:     newEventID(),
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Title:       msg.Title,
		Muted:       msg.Muted,
		SentOn:      msg.SentOn,
	})

	s.plugins.afterCreate(ctx, msg.Clone())

	if s.opts.notifier != nil && recipient.NotifyOnMessage {
		s.notify(ctx, msg.Clone())
	}
}
