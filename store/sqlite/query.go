package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rbaliyan/privmsg/store"
)

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

	return s.get(ctx, s.db, id)
}

func (s *Store) get(ctx context.Context, q sqlx.QueryerContext, id int64) (*store.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, messageColumns, s.opts.table)

	var msg store.Message
	if err := sqlx.GetContext(ctx, q, &msg, query, id); err != nil {
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
		query += ` LIMIT ?`
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

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE sender_id = ? AND sent_on >= ?`, s.opts.table)
	var count int64
	if err := s.db.GetContext(ctx, &count, query, senderID, formatTime(since)); err != nil {
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
	for _, f := range filters {
		cond, condArgs, err := filterToCondition(f)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}
	return strings.Join(conditions, " AND "), args, nil
}

func filterToCondition(f store.Filter) (string, []any, error) {
	key, ok := store.MessageFieldKey(f.Key())
	if !ok {
		return "", nil, fmt.Errorf("%w: unsupported field: %s", store.ErrFilterInvalid, f.Key())
	}
	val := bindValue(f.Value())

	switch f.Operator() {
	case "eq":
		return key + " = ?", []any{val}, nil
	case "ne":
		return key + " != ?", []any{val}, nil
	case "gt":
		return key + " > ?", []any{val}, nil
	case "gte":
		return key + " >= ?", []any{val}, nil
	case "lt":
		return key + " < ?", []any{val}, nil
	case "lte":
		return key + " <= ?", []any{val}, nil
	case "in", "nin":
		set, ok := val.([]any)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s expects a list", store.ErrFilterInvalid, f.Operator())
		}
		if len(set) == 0 {
			if f.Operator() == "in" {
				return "1=0", nil, nil
			}
			return "1=1", nil, nil
		}
		args := make([]any, len(set))
		for i, v := range set {
			args[i] = bindValue(v)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(set)), ", ")
		not := ""
		if f.Operator() == "nin" {
			not = "NOT "
		}
		return fmt.Sprintf("%s %sIN (%s)", key, not, placeholders), args, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported operator: %s", store.ErrFilterInvalid, f.Operator())
	}
}

// bindValue converts timestamps to the stored text layout.
func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return formatTime(t)
	}
	return v
}
