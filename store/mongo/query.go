package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/privmsg/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Get retrieves a message by ID.
func (s *Store) Get(ctx context.Context, id int64) (*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, store.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	var doc messageDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return doc.toMessage(), nil
}

// Find returns messages matching all filters ordered by ID.
func (s *Store) Find(ctx context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	filter, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	sortDir := -1
	if opts.SortOrder == store.SortAsc {
		sortDir = 1
	}
	findOpts := mongoopts.Find().SetSort(bson.D{bson.E{Key: "_id", Value: sortDir}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	messages := make([]*store.Message, len(docs))
	for i := range docs {
		messages[i] = docs[i].toMessage()
	}
	return messages, nil
}

// CountSentSince counts messages from senderID with sent_on >= since.
// Comparison happens at the millisecond precision sent_on is stored with, so
// a send in the same millisecond as since always counts.
func (s *Store) CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	filter, err := sentSinceFilter(senderID, since)
	if err != nil {
		return 0, err
	}
	n, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count sent: %w", err)
	}
	return n, nil
}

func sentSinceFilter(senderID string, since time.Time) (bson.M, error) {
	return buildFilter([]store.Filter{
		store.SenderIs(senderID),
		store.SentSince(since.Truncate(time.Millisecond)),
	})
}

// mapKey maps store keys to document keys.
func mapKey(key string) string {
	if key == "id" {
		return "_id"
	}
	return key
}

var mongoOperators = map[string]string{
	"ne":  "$ne",
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
	"nin": "$nin",
}

// buildFilter converts store filters to a MongoDB query.
// Several filters on the same key are merged into one operator document.
func buildFilter(filters []store.Filter) (bson.M, error) {
	result := bson.M{}
	for _, f := range filters {
		if _, ok := store.MessageFieldKey(f.Key()); !ok {
			return nil, fmt.Errorf("%w: unsupported field: %s", store.ErrFilterInvalid, f.Key())
		}
		key := mapKey(f.Key())
		value := f.Value()
		if t, ok := value.(time.Time); ok {
			value = t.UTC()
		}

		op := "$eq"
		if f.Operator() != "eq" {
			mop, ok := mongoOperators[f.Operator()]
			if !ok {
				return nil, fmt.Errorf("%w: unsupported operator: %s", store.ErrFilterInvalid, f.Operator())
			}
			op = mop
		}
		if set, ok := value.([]any); ok {
			value = append(bson.A{}, set...)
		}

		cond, exists := result[key].(bson.M)
		if !exists {
			cond = bson.M{}
			result[key] = cond
		}
		cond[op] = value
	}
	return result, nil
}
