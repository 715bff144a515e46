package privmsg

import "github.com/rbaliyan/privmsg/store"

// InboxFilters selects the messages listed in userID's inbox: addressed to
// the user, not hidden by the user and not muted.
func InboxFilters(userID string) []store.Filter {
	return []store.Filter{
		store.RecipientIs(userID),
		store.VisibleTo(store.PartyRecipient),
		store.NotMuted(),
	}
}

// OutboxFilters selects the messages listed in userID's outbox.
func OutboxFilters(userID string) []store.Filter {
	return []store.Filter{
		store.SenderIs(userID),
		store.VisibleTo(store.PartySender),
		store.NotMuted(),
	}
}
