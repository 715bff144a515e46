package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rbaliyan/privmsg/store"
)

// messageColumns is the canonical SELECT column list; names match the db
// tags on store.Message.
const messageColumns = `id, sender_id, recipient_id, sent_on, title, body, body_format,
       is_read, sender_visible, recipient_visible, muted`

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

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, s.opts.table)

	var msg store.Message
	if err := s.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	msg.SentOn = msg.SentOn.UTC()
	return &msg, nil
}

// Find returns messages matching all filters ordered by ID.
func (s *Store) Find(ctx context.Context, filters []store.Filter, opts store.ListOptions) ([]*store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	where, args, err := buildWhereClause(filters)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	order := "DESC"
	if opts.SortOrder == store.SortAsc {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY id %s`, messageColumns, s.opts.table, where, order)
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, opts.Limit)
	}

	var rows []store.Message
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	messages := make([]*store.Message, len(rows))
	for i := range rows {
		rows[i].SentOn = rows[i].SentOn.UTC()
		messages[i] = &rows[i]
	}
	return messages, nil
}

// CountSentSince counts messages from senderID with sent_on >= since.
func (s *Store) CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE sender_id = $1 AND sent_on >= $2`, s.opts.table)
	var count int64
	if err := s.db.GetContext(ctx, &count, query, senderID, since.UTC()); err != nil {
		return 0, fmt.Errorf("count sent: %w", err)
	}
	return count, nil
}

func buildWhereClause(filters []store.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "1=1", nil, nil
	}

	conditions := make([]string, 0, len(filters))
	var args []any
	argIdx := 1

	for _, f := range filters {
		cond, arg, err := filterToCondition(f, &argIdx)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	return strings.Join(conditions, " AND "), args, nil
}

func filterToCondition(f store.Filter, argIdx *int) (string, any, error) {
	key, ok := store.MessageFieldKey(f.Key())
	if !ok {
		return "", nil, fmt.Errorf("%w: unsupported field: %s", store.ErrFilterInvalid, f.Key())
	}
	val := f.Value()
	if t, ok := val.(time.Time); ok {
		val = t.UTC()
	}

	var cond string
	switch f.Operator() {
	case "eq":
		cond = fmt.Sprintf("%s = $%d", key, *argIdx)
	case "ne":
		cond = fmt.Sprintf("%s != $%d", key, *argIdx)
	case "gt":
		cond = fmt.Sprintf("%s > $%d", key, *argIdx)
	case "gte":
		cond = fmt.Sprintf("%s >= $%d", key, *argIdx)
	case "lt":
		cond = fmt.Sprintf("%s < $%d", key, *argIdx)
	case "lte":
		cond = fmt.Sprintf("%s <= $%d", key, *argIdx)
	case "in":
		cond = fmt.Sprintf("%s = ANY($%d)", key, *argIdx)
		val = pq.Array(val)
	case "nin":
		cond = fmt.Sprintf("NOT (%s = ANY($%d))", key, *argIdx)
		val = pq.Array(val)
	default:
		return "", nil, fmt.Errorf("%w: unsupported operator: %s", store.ErrFilterInvalid, f.Operator())
	}
	*argIdx++
	return cond, val, nil
}
