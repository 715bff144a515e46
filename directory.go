package privmsg

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbaliyan/privmsg/store"
)

// User is the part of a user record the message core needs.
type User struct {
	ID          string
	DisplayName string
	// MaxMessagesPerHour overrides the configured quota when positive.
	MaxMessagesPerHour int
	// NotifyOnMessage asks for a notification when a message arrives.
	NotifyOnMessage bool
}

// Directory looks users up. Both methods return an error matching
// ErrUserNotFound for unknown users.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByDisplayName(ctx context.Context, name string) (*User, error)
}

// RecipientRef names the recipient of a new message either by user ID or by
// display name. ID wins when both are set.
type RecipientRef struct {
	ID          string
	DisplayName string
}

// ByID returns a reference to the user with the given ID.
func ByID(id string) RecipientRef { return RecipientRef{ID: id} }

// ByDisplayName returns a reference to the user with the given display name.
func ByDisplayName(name string) RecipientRef { return RecipientRef{DisplayName: name} }

// resolve turns ref into a user in a single step.
func (r RecipientRef) resolve(ctx context.Context, dir Directory) (*User, error) {
	var (
		u   *User
		err error
		key string
	)
	switch {
	case !isBlank(r.ID):
		key = r.ID
		u, err = dir.FindByID(ctx, r.ID)
	case !isBlank(r.DisplayName):
		key = r.DisplayName
		u, err = dir.FindByDisplayName(ctx, r.DisplayName)
	default:
		return nil, badInput(msgNoRecipient)
	}

	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("recipient %q: %w", key, ErrUserNotFound)
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("recipient %q: %w", key, ErrUserNotFound)
	}
	return u, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
