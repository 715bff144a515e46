package memory

import (
	"context"
	"sync/atomic"

	"github.com/rbaliyan/privmsg/store"
)

// Create stores a new message with the next sequential ID.
func (s *Store) Create(ctx context.Context, data store.MessageData) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	msg := store.NewMessage(atomic.AddInt64(&s.lastID, 1), data)
	s.messages.Store(msg.ID, msg)
	return msg.Clone(), nil
}
