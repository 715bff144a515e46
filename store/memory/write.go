package memory

import (
	"context"

	"github.com/rbaliyan/privmsg/store"
)

// MarkRead sets the read flag.
func (s *Store) MarkRead(ctx context.Context, id int64, read bool) (*store.Message, error) {
	return s.update(ctx, id, func(m *store.Message) {
		m.Read = read
	})
}

// SetVisible sets the visibility flag of one party.
func (s *Store) SetVisible(ctx context.Context, id int64, party store.Party, visible bool) (*store.Message, error) {
	if !party.Valid() {
		return nil, store.ErrInvalidParty
	}
	return s.update(ctx, id, func(m *store.Message) {
		switch party {
		case store.PartySender:
			m.SenderVisible = visible
		case store.PartyRecipient:
			m.RecipientVisible = visible
		}
	})
}

// update applies fn to a copy of the message under its lock and swaps the
// copy in, so readers never observe a partially written record.
func (s *Store) update(ctx context.Context, id int64, fn func(*store.Message)) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := s.getMsgLock(id)
	lock.Lock()
	defer lock.Unlock()

	current, ok := s.load(id)
	if !ok {
		return nil, store.ErrNotFound
	}

	updated := current.Clone()
	fn(updated)
	s.messages.Store(id, updated)
	return updated.Clone(), nil
}
