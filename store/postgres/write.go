package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rbaliyan/privmsg/store"
)

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

// setColumn updates one boolean column and returns the row in one round trip.
func (s *Store) setColumn(ctx context.Context, id int64, column string, value bool) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2 RETURNING %s`,
		s.opts.table, column, messageColumns)

	var msg store.Message
	if err := s.db.GetContext(ctx, &msg, query, value, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", column, err)
	}
	msg.SentOn = msg.SentOn.UTC()
	return &msg, nil
}
