package postgres

import (
	"context"
	"fmt"

	"github.com/rbaliyan/privmsg/store"
)

// Create inserts a new message. The BIGSERIAL sequence assigns the ID.
func (s *Store) Create(ctx context.Context, data store.MessageData) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (sender_id, recipient_id, sent_on, title, body, body_format,
		                is_read, sender_visible, recipient_visible, muted)
		VALUES ($1, $2, $3, $4, $5, $6, false, true, true, $7)
		RETURNING %s
	`, s.opts.table, messageColumns)

	var msg store.Message
	err := s.db.GetContext(ctx, &msg, query,
		data.SenderID, data.RecipientID, data.SentOn.UTC(),
		data.Title, data.Body, data.BodyFormat, data.Muted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	msg.SentOn = msg.SentOn.UTC()
	return &msg, nil
}
