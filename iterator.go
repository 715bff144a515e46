package privmsg

import (
	"context"
	"errors"
	"strconv"
)

// ErrIteratorOutOfBounds is returned when Message() is called without a successful Next().
var ErrIteratorOutOfBounds = errors.New("privmsg: iterator out of bounds - call Next() first")

// Iterator walks every page of a listing, one message at a time.
// Each page is fetched with the same order and limit as the first one and a
// from_id derived from the last message of the previous page, so messages
// created or hidden mid-walk never cause duplicates.
//
//	it := client.Walk(privmsg.BoxInbox, privmsg.ListParams{Limit: "50"})
//	for {
//	    ok, err := it.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    msg, _ := it.Message()
//	    // ...
//	}
//
// Iterator is not safe for concurrent use and holds no resources.
type Iterator struct {
	messages *userMessages
	box      Box
	params   ListParams
	limit    int
	err      error // validation error reported by the first Next

	batch    []*Message
	batchIdx int
	fetched  bool
	done     bool
}

// Walk returns an iterator over box starting from params.
// An unknown box or invalid params are reported by the first call to Next.
func (m *userMessages) Walk(box Box, params ListParams) *Iterator {
	it := &Iterator{messages: m, box: box, params: params}
	if _, err := box.filters(m.userID); err != nil {
		it.err = err
		return it
	}
	page, err := Paginate(nil, params, m.service.opts.defaultQueryLimit, m.service.opts.maxQueryLimit)
	if err != nil {
		it.err = err
		return it
	}
	it.limit = page.Options.Limit
	return it
}

// Next advances to the next message.
// Returns (false, nil) once the listing is exhausted.
func (it *Iterator) Next(ctx context.Context) (bool, error) {
	if it.done {
		return false, nil
	}
	if it.err != nil {
		it.done = true
		return false, it.err
	}

	if it.batchIdx >= len(it.batch) {
		// A short page is the last one.
		if it.fetched && len(it.batch) < it.limit {
			it.done = true
			return false, nil
		}

		msgs, err := it.messages.list(ctx, it.box, it.params)
		if err != nil {
			it.done = true
			return false, err
		}
		it.batch = msgs
		it.batchIdx = 0
		it.fetched = true

		if len(msgs) == 0 {
			it.done = true
			return false, nil
		}
		it.params.FromID = strconv.FormatInt(it.nextFromID(msgs[len(msgs)-1].ID), 10)
	}

	it.batchIdx++
	return true, nil
}

func (it *Iterator) nextFromID(lastID int64) int64 {
	if it.params.Order == OrderOldest {
		return lastID + 1
	}
	return lastID - 1
}

// Message returns the current message.
func (it *Iterator) Message() (*Message, error) {
	if it.batchIdx <= 0 || it.batchIdx > len(it.batch) {
		return nil, ErrIteratorOutOfBounds
	}
	return it.batch[it.batchIdx-1], nil
}
