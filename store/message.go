package store

import (
	"fmt"
	"time"
)

// Party identifies one side of a message.
type Party int

const (
	// PartySender is the author of a message.
	PartySender Party = iota + 1
	// PartyRecipient is the addressee of a message.
	PartyRecipient
)

// String returns "sender" or "recipient".
func (p Party) String() string {
	switch p {
	case PartySender:
		return "sender"
	case PartyRecipient:
		return "recipient"
	default:
		return fmt.Sprintf("party(%d)", int(p))
	}
}

// Valid reports whether p is a known party.
func (p Party) Valid() bool {
	return p == PartySender || p == PartyRecipient
}

// VisibilityField returns the storage key of the party's visibility flag.
func (p Party) VisibilityField() (string, bool) {
	switch p {
	case PartySender:
		return "sender_visible", true
	case PartyRecipient:
		return "recipient_visible", true
	default:
		return "", false
	}
}

// Message is a stored private message.
//
// ID, SenderID, RecipientID, SentOn, Title, Body and BodyFormat never change
// after creation. Read is mutated only on behalf of the recipient, and each
// visibility flag only on behalf of its own party.
type Message struct {
	ID               int64     `json:"id" db:"id"`
	SenderID         string    `json:"sender_id" db:"sender_id"`
	RecipientID      string    `json:"recipient_id" db:"recipient_id"`
	SentOn           time.Time `json:"sent_on" db:"sent_on"`
	Title            string    `json:"title" db:"title"`
	Body             string    `json:"body" db:"body"`
	BodyFormat       string    `json:"body_format" db:"body_format"`
	Read             bool      `json:"read" db:"is_read"`
	SenderVisible    bool      `json:"sender_visible" db:"sender_visible"`
	RecipientVisible bool      `json:"recipient_visible" db:"recipient_visible"`
	Muted            bool      `json:"muted" db:"muted"`
}

// Clone returns a copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// VisibleTo reports whether the message is visible to the given party.
func (m *Message) VisibleTo(p Party) bool {
	switch p {
	case PartySender:
		return m.SenderVisible
	case PartyRecipient:
		return m.RecipientVisible
	default:
		return false
	}
}

// MessageData contains the fields needed to create a message.
// New messages always start unread and visible to both parties.
type MessageData struct {
	SenderID    string
	RecipientID string
	SentOn      time.Time
	Title       string
	Body        string
	BodyFormat  string
	Muted       bool
}

// Validate checks the fields every backend relies on.
func (d MessageData) Validate() error {
	if d.SenderID == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidData)
	}
	if d.RecipientID == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidData)
	}
	if d.SentOn.IsZero() {
		return fmt.Errorf("%w: sent_on is required", ErrInvalidData)
	}
	return nil
}

// NewMessage builds the initial record for data with the given ID.
func NewMessage(id int64, data MessageData) *Message {
	return &Message{
		ID:               id,
		SenderID:         data.SenderID,
		RecipientID:      data.RecipientID,
		SentOn:           data.SentOn.UTC(),
		Title:            data.Title,
		Body:             data.Body,
		BodyFormat:       data.BodyFormat,
		Read:             false,
		SenderVisible:    true,
		RecipientVisible: true,
		Muted:            data.Muted,
	}
}
