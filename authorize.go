package privmsg

import (
	"fmt"

	"github.com/rbaliyan/privmsg/store"
)

// Operation is an action on a single message that needs authorization.
// Listing is scoped by query and never checked per message.
type Operation int

const (
	// OpShow reads a message by ID.
	OpShow Operation = iota + 1
	// OpUpdateReadStatus changes the read flag.
	OpUpdateReadStatus
	// OpDestroy hides a message from the caller's own listing.
	OpDestroy
)

func (op Operation) String() string {
	switch op {
	case OpShow:
		return "show"
	case OpUpdateReadStatus:
		return "update-read-status"
	case OpDestroy:
		return "destroy"
	default:
		return fmt.Sprintf("operation(%d)", int(op))
	}
}

// PartyOf reports which side of msg userID is on.
// The sender side is reported when the user is both sender and recipient.
func PartyOf(userID string, msg *store.Message) (store.Party, bool) {
	switch {
	case msg == nil || userID == "":
		return 0, false
	case msg.SenderID == userID:
		return store.PartySender, true
	case msg.RecipientID == userID:
		return store.PartyRecipient, true
	default:
		return 0, false
	}
}

// Authorize reports whether userID may perform op on msg.
// It returns nil or an error wrapping ErrAccessDenied.
func Authorize(userID string, msg *store.Message, op Operation) error {
	if msg == nil || userID == "" {
		return ErrAccessDenied
	}

	var allowed bool
	switch op {
	case OpShow, OpDestroy:
		_, allowed = PartyOf(userID, msg)
	case OpUpdateReadStatus:
		allowed = msg.RecipientID == userID
	}
	if !allowed {
		return fmt.Errorf("%w: %s message %d", ErrAccessDenied, op, msg.ID)
	}
	return nil
}
