package memory

import (
	"strings"
	"time"

	"github.com/rbaliyan/privmsg/store"
)

func matchesFilters(m *store.Message, filters []store.Filter) bool {
	for _, f := range filters {
		if !matchesFilter(m, f) {
			return false
		}
	}
	return true
}

func matchesFilter(m *store.Message, f store.Filter) bool {
	var fieldValue any
	switch f.Key() {
	case "id":
		fieldValue = m.ID
	case "sender_id":
		fieldValue = m.SenderID
	case "recipient_id":
		fieldValue = m.RecipientID
	case "sent_on":
		fieldValue = m.SentOn
	case "title":
		fieldValue = m.Title
	case "body":
		fieldValue = m.Body
	case "body_format":
		fieldValue = m.BodyFormat
	case "is_read":
		fieldValue = m.Read
	case "sender_visible":
		fieldValue = m.SenderVisible
	case "recipient_visible":
		fieldValue = m.RecipientVisible
	case "muted":
		fieldValue = m.Muted
	default:
		// Unknown keys match nothing so a typo can never widen a listing.
		return false
	}

	value := f.Value()
	switch f.Operator() {
	case "in":
		return valueInSet(fieldValue, value)
	case "nin":
		return !valueInSet(fieldValue, value)
	}

	c, ok := compareValues(fieldValue, value)
	if !ok {
		return f.Operator() == "ne"
	}
	switch f.Operator() {
	case "eq":
		return c == 0
	case "ne":
		return c != 0
	case "lt":
		return c < 0
	case "lte":
		return c <= 0
	case "gt":
		return c > 0
	case "gte":
		return c >= 0
	default:
		return false
	}
}

// valueInSet checks if a scalar value is in a set (slice) of values.
func valueInSet(fieldValue any, set any) bool {
	switch s := set.(type) {
	case []string:
		for _, v := range s {
			if c, ok := compareValues(fieldValue, v); ok && c == 0 {
				return true
			}
		}
	case []int64:
		for _, v := range s {
			if c, ok := compareValues(fieldValue, v); ok && c == 0 {
				return true
			}
		}
	case []any:
		for _, v := range s {
			if c, ok := compareValues(fieldValue, v); ok && c == 0 {
				return true
			}
		}
	}
	return false
}

// compareValues orders a and b. ok is false when the types cannot be compared.
func compareValues(a, b any) (c int, ok bool) {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	case int64:
		var bv int64
		switch t := b.(type) {
		case int64:
			bv = t
		case int:
			bv = int64(t)
		default:
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), true
		}
	}
	return 0, false
}
