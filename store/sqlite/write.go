package sqlite

import (
	"context"
	"fmt"

	"github.com/rbaliyan/privmsg/store"
)

// Create inserts a new message and reads it back by its row ID.
func (s *Store) Create(ctx context.Context, data store.MessageData) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (sender_id, recipient_id, sent_on, title, body, body_format,
		                is_read, sender_visible, recipient_visible, muted)
		VALUES (?, ?, ?, ?, ?, ?, 0, 1, 1, ?)
	`, s.opts.table)

	res, err := tx.ExecContext(ctx, query,
		data.SenderID, data.RecipientID, formatTime(data.SentOn),
		data.Title, data.Body, data.BodyFormat, data.Muted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	msg, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return msg, nil
}

// MarkRead sets the read flag.
func (s *Store) MarkRead(ctx context.Context, id int64, read bool) (*store.Message, error) {
	return s.setColumn(ctx, id, "is_read", read)
}

// SetVisible sets the visibility flag of one party.
func (s *Store) SetVisible(ctx context.Context, id int64, party store.Party, visible bool) (*store.Message, error) {
	column, ok := party.VisibilityField()
	if !ok {
		return nil, store.ErrInvalidParty
	}
	return s.setColumn(ctx, id, column, visible)
}

func (s *Store) setColumn(ctx context.Context, id int64, column string, value bool) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, s.opts.table, column)
	res, err := tx.ExecContext(ctx, query, value, id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", column, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, store.ErrNotFound
	}

	msg, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return msg, nil
}
