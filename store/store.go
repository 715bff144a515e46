// Package store provides interfaces and types for private message storage.
// Implementations are in the store/memory, store/postgres, store/sqlite and
// store/mongo subpackages.
//
// # No Distributed Locks
//
// Every mutation is a single atomic statement in the backing database
// (UPDATE ... RETURNING, findOneAndUpdate, or a per-record mutex in memory).
// Two users flipping different flags on the same message never overwrite
// each other because each statement only touches its own column.
//
//	// WRONG: read-modify-write loses concurrent updates
//	msg, _ := st.Get(ctx, id)
//	msg.Read = true
//	st.Save(ctx, msg)
//
//	// CORRECT: targeted atomic update
//	msg, err := st.MarkRead(ctx, id, true)
package store

import (
	"context"
	"time"
)

// Store is the storage interface for private messages.
//
// All operations must be safe for concurrent use. Implementations must use
// database-level atomicity rather than external locking.
type Store interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	MessageReader
	MessageCreator
	MessageMutator
	SendCounter
}

// MessageReader provides read operations for messages.
type MessageReader interface {
	// Get retrieves a message by ID regardless of visibility or mute state.
	// Returns ErrNotFound if the message doesn't exist.
	Get(ctx context.Context, id int64) (*Message, error)

	// Find returns messages matching all filters, ordered by ID in the
	// direction given by opts.SortOrder, at most opts.Limit of them.
	Find(ctx context.Context, filters []Filter, opts ListOptions) ([]*Message, error)
}

// MessageCreator provides message creation.
type MessageCreator interface {
	// Create persists a new message. The store assigns an ID strictly greater
	// than any ID it has assigned before.
	Create(ctx context.Context, data MessageData) (*Message, error)
}

// MessageMutator provides targeted atomic mutations.
// Each call changes exactly one column and returns the updated record.
type MessageMutator interface {
	// MarkRead sets the read flag.
	MarkRead(ctx context.Context, id int64, read bool) (*Message, error)

	// SetVisible sets the visibility flag of one party.
	SetVisible(ctx context.Context, id int64, party Party, visible bool) (*Message, error)
}

// SendCounter counts messages created by a sender.
type SendCounter interface {
	// CountSentSince returns the number of messages from senderID with
	// sent_on >= since. There is no upper bound.
	CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error)
}
