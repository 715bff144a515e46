package memory

import (
	"context"
	"sort"
	"time"

	"github.com/rbaliyan/privmsg/store"
)

// Get retrieves a message by ID.
func (s *Store) Get(ctx context.Context, id int64) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	msg, ok := s.load(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return msg.Clone(), nil
}

// Find returns messages matching all filters ordered by ID.
func (s *Store) Find(ctx context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []*store.Message
	s.messages.Range(func(_, v any) bool {
		msg := v.(*store.Message)
		if matchesFilters(msg, filters) {
			matched = append(matched, msg.Clone())
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		if opts.SortOrder == store.SortAsc {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].ID > matched[j].ID
	})

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// CountSentSince counts messages from senderID with sent_on >= since.
func (s *Store) CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	filters := []store.Filter{store.SenderIs(senderID), store.SentSince(since)}
	var count int64
	s.messages.Range(func(_, v any) bool {
		if matchesFilters(v.(*store.Message), filters) {
			count++
		}
		return true
	})
	return count, nil
}
