package store

import (
	"fmt"
	"time"
)

// SortOrder represents the sort direction on message ID.
type SortOrder int

const (
	// SortAsc sorts oldest first.
	SortAsc SortOrder = 1
	// SortDesc sorts newest first.
	SortDesc SortOrder = -1
)

// ListOptions configures message listing.
// Results are always ordered by ID; Limit <= 0 means no limit.
type ListOptions struct {
	Limit     int
	SortOrder SortOrder
}

// Filter represents a query filter with a field key, comparison operator, and value.
type Filter struct {
	key      string
	value    any
	operator string
}

// Key returns the storage field key.
func (f Filter) Key() string { return f.key }

// Value returns the filter value.
func (f Filter) Value() any { return f.value }

// Operator returns the comparison operator (eq, ne, gt, gte, lt, lte, in, nin).
func (f Filter) Operator() string { return f.operator }

// String renders the filter for logs and test failures.
func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.key, f.operator, f.value)
}

// FilterBuilder builds filters for a specific message field.
// Use MessageFilter() to create one, then chain a comparison method:
//
//	filter, err := store.MessageFilter("SentOn").GreaterThanEqual(cutoff)
type FilterBuilder struct {
	key string
	err error
}

// validOperators is the set of supported filter operators.
var validOperators = map[string]bool{
	"eq":  true,
	"ne":  true,
	"gt":  true,
	"gte": true,
	"lt":  true,
	"lte": true,
	"in":  true,
	"nin": true,
}

// NewFilter creates a filter with the given key, operator, and value.
// Returns ErrFilterInvalid if the key or operator is invalid.
func NewFilter(key, operator string, value any) (Filter, error) {
	storageKey, ok := MessageFieldKey(key)
	if !ok {
		return Filter{}, fmt.Errorf("%w: unsupported field: %s", ErrFilterInvalid, key)
	}
	if !validOperators[operator] {
		return Filter{}, fmt.Errorf("%w: unsupported operator: %s", ErrFilterInvalid, operator)
	}
	return Filter{key: storageKey, value: value, operator: operator}, nil
}

// FilterError represents an error in filter building.
type FilterError struct {
	Key string
	Err error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: %v", e.Key, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

func (b *FilterBuilder) build(op string, v any) (Filter, error) {
	if b.err != nil {
		return Filter{}, &FilterError{Key: b.key, Err: b.err}
	}
	return Filter{key: b.key, value: v, operator: op}, nil
}

func (b *FilterBuilder) Equal(v any) (Filter, error)            { return b.build("eq", v) }
func (b *FilterBuilder) NotEqual(v any) (Filter, error)         { return b.build("ne", v) }
func (b *FilterBuilder) GreaterThan(v any) (Filter, error)      { return b.build("gt", v) }
func (b *FilterBuilder) GreaterThanEqual(v any) (Filter, error) { return b.build("gte", v) }
func (b *FilterBuilder) LessThan(v any) (Filter, error)         { return b.build("lt", v) }
func (b *FilterBuilder) LessThanEqual(v any) (Filter, error)    { return b.build("lte", v) }
func (b *FilterBuilder) In(v ...any) (Filter, error)            { return b.build("in", v) }
func (b *FilterBuilder) NotIn(v ...any) (Filter, error)         { return b.build("nin", v) }

// MessageFilter returns a filter builder for message fields.
func MessageFilter(field string) *FilterBuilder {
	key, ok := MessageFieldKey(field)
	if !ok {
		return &FilterBuilder{key: field, err: fmt.Errorf("%w: unsupported field: %s", ErrFilterInvalid, field)}
	}
	return &FilterBuilder{key: key}
}

// MessageFieldKey maps field names to storage keys.
func MessageFieldKey(field string) (string, bool) {
	switch field {
	case "ID", "id":
		return "id", true
	case "SenderID", "sender_id":
		return "sender_id", true
	case "RecipientID", "recipient_id":
		return "recipient_id", true
	case "SentOn", "sent_on":
		return "sent_on", true
	case "Title", "title":
		return "title", true
	case "Body", "body":
		return "body", true
	case "BodyFormat", "body_format":
		return "body_format", true
	case "Read", "is_read":
		return "is_read", true
	case "SenderVisible", "sender_visible":
		return "sender_visible", true
	case "RecipientVisible", "recipient_visible":
		return "recipient_visible", true
	case "Muted", "muted":
		return "muted", true
	default:
		return "", false
	}
}

// Convenience filter functions

// SenderIs returns a filter for messages from a specific sender.
func SenderIs(senderID string) Filter {
	f, _ := MessageFilter("SenderID").Equal(senderID)
	return f
}

// RecipientIs returns a filter for messages to a specific recipient.
func RecipientIs(recipientID string) Filter {
	f, _ := MessageFilter("RecipientID").Equal(recipientID)
	return f
}

// VisibleTo returns a filter for messages whose visibility flag for p is set.
// An unknown party yields a filter that matches nothing.
func VisibleTo(p Party) Filter {
	field, ok := p.VisibilityField()
	if !ok {
		f, _ := MessageFilter("ID").In()
		return f
	}
	f, _ := MessageFilter(field).Equal(true)
	return f
}

// NotMuted excludes muted messages.
func NotMuted() Filter {
	f, _ := MessageFilter("Muted").Equal(false)
	return f
}

// IDAtMost returns a filter for messages with id <= id.
func IDAtMost(id int64) Filter {
	f, _ := MessageFilter("ID").LessThanEqual(id)
	return f
}

// IDAtLeast returns a filter for messages with id >= id.
func IDAtLeast(id int64) Filter {
	f, _ := MessageFilter("ID").GreaterThanEqual(id)
	return f
}

// SentSince returns a filter for messages with sent_on >= t.
func SentSince(t time.Time) Filter {
	f, _ := MessageFilter("SentOn").GreaterThanEqual(t.UTC())
	return f
}
