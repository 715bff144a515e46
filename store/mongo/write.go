package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbaliyan/privmsg/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Create inserts a new message under the next id of the sequence.
func (s *Store) Create(ctx context.Context, data store.MessageData) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := newMessageDoc(id, data)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return doc.toMessage(), nil
}

// nextID atomically increments the sequence for the message collection.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	opts := mongoopts.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(mongoopts.After)

	var counter counterDoc
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.opts.collection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return counter.Seq, nil
}

// MarkRead sets the read flag.
func (s *Store) MarkRead(ctx context.Context, id int64, read bool) (*store.Message, error) {
	return s.setField(ctx, id, "is_read", read)
}

// SetVisible sets the visibility flag of one party.
func (s *Store) SetVisible(ctx context.Context, id int64, party store.Party, visible bool) (*store.Message, error) {
	field, ok := party.VisibilityField()
	if !ok {
		return nil, store.ErrInvalidParty
	}
	return s.setField(ctx, id, field, visible)
}

func (s *Store) setField(ctx context.Context, id int64, field string, value bool) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	opts := mongoopts.FindOneAndUpdate().SetReturnDocument(mongoopts.After)

	var doc messageDoc
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", field, err)
	}
	return doc.toMessage(), nil
}
