package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/privmsg"
	"github.com/rbaliyan/privmsg/resolver"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	alice := &privmsg.User{ID: "u1", DisplayName: "Alice", MaxMessagesPerHour: 5}
	dir := resolver.NewStatic(alice, nil, &privmsg.User{DisplayName: "no id"}, &privmsg.User{ID: "u2", DisplayName: "Bob"})

	if got := dir.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	got, err := dir.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if diff := cmp.Diff(alice, got); diff != "" {
		t.Errorf("FindByID mismatch (-want +got):\n%s", diff)
	}

	got, err = dir.FindByDisplayName(ctx, "Bob")
	if err != nil {
		t.Fatalf("FindByDisplayName: %v", err)
	}
	if got.ID != "u2" {
		t.Errorf("FindByDisplayName(Bob).ID = %q, want u2", got.ID)
	}

	// Returned users are copies.
	got.DisplayName = "changed"
	if again, _ := dir.FindByDisplayName(ctx, "Bob"); again.DisplayName != "Bob" {
		t.Errorf("directory entry mutated through returned user")
	}
	alice.DisplayName = "changed"
	if again, _ := dir.FindByID(ctx, "u1"); again.DisplayName != "Alice" {
		t.Errorf("directory entry mutated through input user")
	}
}

func TestStaticNotFound(t *testing.T) {
	ctx := context.Background()
	dir := resolver.NewStatic(&privmsg.User{ID: "u1", DisplayName: "Alice"})

	tests := []struct {
		name string
		find func() (*privmsg.User, error)
	}{
		{"unknown id", func() (*privmsg.User, error) { return dir.FindByID(ctx, "nope") }},
		{"unknown name", func() (*privmsg.User, error) { return dir.FindByDisplayName(ctx, "Bob") }},
		{"name is case sensitive", func() (*privmsg.User, error) { return dir.FindByDisplayName(ctx, "alice") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.find()
			if !errors.Is(err, privmsg.ErrUserNotFound) {
				t.Fatalf("err = %v, want ErrUserNotFound", err)
			}
			if !errors.Is(err, privmsg.ErrNotFound) {
				t.Errorf("err = %v, want match for ErrNotFound", err)
			}
			if u != nil {
				t.Errorf("user = %+v, want nil", u)
			}
		})
	}
}
