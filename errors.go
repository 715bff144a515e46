package privmsg

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/privmsg/store"
)

// Sentinel errors for the privmsg package.
// Use errors.Is() to check for these errors.
//
// These errors wrap corresponding store-level errors where applicable,
// so errors.Is(err, privmsg.ErrNotFound) matches both service-level
// and store-level "not found" errors.
var (
	// ErrBadInput is returned for malformed, missing or out-of-range caller input.
	// The concrete error is a *BadInputError carrying the caller-facing text.
	ErrBadInput = errors.New("privmsg: bad input")

	// ErrNotFound is returned when a message or user cannot be found.
	// Wraps store.ErrNotFound for consistent error checking.
	ErrNotFound = fmt.Errorf("privmsg: %w", store.ErrNotFound)

	// ErrUserNotFound is returned by a Directory for unknown users.
	// It matches ErrNotFound.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrAccessDenied is returned when the acting user is not allowed to
	// perform an operation on a message.
	ErrAccessDenied = errors.New("privmsg: access denied")

	// ErrRateLimitExceeded is returned when the sender has used up their
	// quota for the current window. Waiting for the window to pass recovers.
	ErrRateLimitExceeded = errors.New("privmsg: rate limit exceeded")

	// ErrStoreRequired is returned when no store is configured.
	ErrStoreRequired = errors.New("privmsg: store is required")

	// ErrDirectoryRequired is returned when no user directory is configured.
	ErrDirectoryRequired = errors.New("privmsg: directory is required")

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps store.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("privmsg: %w", store.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps store.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("privmsg: %w", store.ErrAlreadyConnected)

	// ErrInvalidUserID is returned when a user ID contains invalid characters.
	ErrInvalidUserID = errors.New("privmsg: invalid user id")

	// ErrInvalidBox is returned when listing a Box other than BoxInbox or BoxOutbox.
	ErrInvalidBox = errors.New("privmsg: invalid box")

	// ErrCounterRetention is returned by NewService when the send counter
	// forgets sends before the rate limit window has passed.
	ErrCounterRetention = errors.New("privmsg: send counter retention shorter than rate limit window")
)

// Caller-facing texts of BadInputError.
const (
	msgNoTitle          = "No title was given"
	msgNoBody           = "No body was given"
	msgNoRecipient      = "No recipient was given"
	msgInvalidOrder     = "Invalid order specified"
	msgInvalidFromID    = "Invalid from_id specified"
	msgInvalidReadState = "Invalid value of `read_status` was given"
)

// BadInputError describes caller input that was rejected.
// Message is safe to show to the caller as-is.
type BadInputError struct {
	Message string
}

func (e *BadInputError) Error() string {
	return "privmsg: bad input: " + e.Message
}

func (e *BadInputError) Unwrap() error {
	return ErrBadInput
}

func badInput(format string, args ...any) error {
	return &BadInputError{Message: fmt.Sprintf(format, args...)}
}

// IsBadInput checks if the error is a bad input error and returns details.
func IsBadInput(err error) (*BadInputError, bool) {
	var bie *BadInputError
	if errors.As(err, &bie) {
		return bie, true
	}
	return nil, false
}

// IsRetryableError determines if an error is retryable.
// Returns true for temporary/transient errors, false for permanent errors.
// Handles both service-level and store-level errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	permanentErrors := []error{
		ErrBadInput,
		ErrNotFound,
		ErrAccessDenied,
		ErrInvalidUserID,
		ErrInvalidBox,
		ErrCounterRetention,
		ErrStoreRequired,
		ErrDirectoryRequired,
		store.ErrNotFound,
		store.ErrInvalidID,
		store.ErrInvalidData,
		store.ErrInvalidParty,
		store.ErrFilterInvalid,
	}
	for _, permErr := range permanentErrors {
		if errors.Is(err, permErr) {
			return false
		}
	}

	retryableErrors := []error{
		ErrRateLimitExceeded, // Rate limit can be waited out
		ErrNotConnected,      // Connection can be re-established
		store.ErrNotConnected,
	}
	for _, retryErr := range retryableErrors {
		if errors.Is(err, retryErr) {
			return true
		}
	}

	// Unknown errors are most likely transient network or timeout failures.
	return true
}
