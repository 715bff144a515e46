package privmsg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rbaliyan/privmsg/store"
)

func TestBadInputError(t *testing.T) {
	err := fmt.Errorf("create: %w", badInput("Messages limit must be between 1 and %d", 100))

	if !errors.Is(err, ErrBadInput) {
		t.Fatal("expected errors.Is(err, ErrBadInput)")
	}
	bie, ok := IsBadInput(err)
	if !ok {
		t.Fatal("expected IsBadInput to find the error")
	}
	if bie.Message != "Messages limit must be between 1 and 100" {
		t.Errorf("Message = %q", bie.Message)
	}

	if _, ok := IsBadInput(ErrAccessDenied); ok {
		t.Error("IsBadInput matched an unrelated error")
	}
	if _, ok := IsBadInput(nil); ok {
		t.Error("IsBadInput matched nil")
	}
}

func TestErrorsWrapStore(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"not found", ErrNotFound, store.ErrNotFound},
		{"user not found", ErrUserNotFound, ErrNotFound},
		{"user not found is store not found", ErrUserNotFound, store.ErrNotFound},
		{"not connected", ErrNotConnected, store.ErrNotConnected},
		{"already connected", ErrAlreadyConnected, store.ErrAlreadyConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad input", badInput(msgNoTitle), false},
		{"not found", fmt.Errorf("message 3: %w", ErrNotFound), false},
		{"store not found", store.ErrNotFound, false},
		{"access denied", ErrAccessDenied, false},
		{"invalid user", ErrInvalidUserID, false},
		{"rate limit", fmt.Errorf("%w: 3 of 3", ErrRateLimitExceeded), true},
		{"not connected", ErrNotConnected, true},
		{"store not connected", store.ErrNotConnected, true},
		{"unknown", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPluginError(t *testing.T) {
	cause := errors.New("spam")
	err := &PluginError{Plugin: "filter", Op: "BeforeCreate", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("PluginError should unwrap to its cause")
	}
	if got, want := err.Error(), "plugin filter BeforeCreate: spam"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
