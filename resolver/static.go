// Package resolver provides privmsg.Directory implementations.
package resolver

import (
	"context"
	"fmt"

	"github.com/rbaliyan/privmsg"
)

var _ privmsg.Directory = (*Static)(nil)

// Static is a map-based Directory for testing and simple deployments.
// Safe for concurrent use (read-only after creation).
type Static struct {
	byID   map[string]*privmsg.User
	byName map[string]*privmsg.User
}

// NewStatic creates a Static directory from users.
// Users are copied to prevent external mutation. Nil users and users without
// an ID are skipped; later users win on duplicate IDs or display names.
func NewStatic(users ...*privmsg.User) *Static {
	s := &Static{
		byID:   make(map[string]*privmsg.User, len(users)),
		byName: make(map[string]*privmsg.User, len(users)),
	}
	for _, u := range users {
		if u == nil || u.ID == "" {
			continue
		}
		c := *u
		s.byID[c.ID] = &c
		if c.DisplayName != "" {
			s.byName[c.DisplayName] = &c
		}
	}
	return s
}

// FindByID returns the user with the given ID.
func (s *Static) FindByID(_ context.Context, id string) (*privmsg.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user id %q: %w", id, privmsg.ErrUserNotFound)
	}
	c := *u
	return &c, nil
}

// FindByDisplayName returns the user with exactly the given display name.
func (s *Static) FindByDisplayName(_ context.Context, name string) (*privmsg.User, error) {
	u, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("display name %q: %w", name, privmsg.ErrUserNotFound)
	}
	c := *u
	return &c, nil
}

// Len returns the number of users.
func (s *Static) Len() int {
	return len(s.byID)
}
