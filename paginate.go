package privmsg

import (
	"strconv"
	"strings"

	"github.com/rbaliyan/privmsg/store"
)

// Listing orders accepted in ListParams.Order.
const (
	OrderNewest = "newest"
	OrderOldest = "oldest"
)

// ListParams is the raw listing input as received from the caller.
// Empty fields take their defaults.
type ListParams struct {
	// Order is "newest" (default) or "oldest".
	Order string
	// FromID is an inclusive cursor: the ID of the first message of the page.
	FromID string
	// Limit caps the page size.
	Limit string
}

// Page is a validated listing request ready to be run against a store.
type Page struct {
	Filters []store.Filter
	Options store.ListOptions
}

// Paginate validates params and narrows base into a single page query.
//
// With "newest" the page is ordered by descending ID and a cursor keeps
// IDs <= FromID; with "oldest" it is ascending and keeps IDs >= FromID.
// The next page starts at the ID following the last returned message.
func Paginate(base []store.Filter, params ListParams, defaultLimit, maxLimit int) (Page, error) {
	filters := make([]store.Filter, len(base), len(base)+1)
	copy(filters, base)

	var (
		order  store.SortOrder
		cursor func(int64) store.Filter
	)
	switch params.Order {
	case "", OrderNewest:
		order, cursor = store.SortDesc, store.IDAtMost
	case OrderOldest:
		order, cursor = store.SortAsc, store.IDAtLeast
	default:
		return Page{}, badInput(msgInvalidOrder)
	}

	if params.FromID != "" {
		fromID, err := strconv.ParseInt(strings.TrimSpace(params.FromID), 10, 64)
		if err != nil {
			return Page{}, badInput(msgInvalidFromID)
		}
		filters = append(filters, cursor(fromID))
	}

	limit := defaultLimit
	if params.Limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(params.Limit))
		if err != nil || n < 1 || n > maxLimit {
			return Page{}, badInput("Messages limit must be between 1 and %d", maxLimit)
		}
		limit = n
	}

	return Page{
		Filters: filters,
		Options: store.ListOptions{Limit: limit, SortOrder: order},
	}, nil
}
