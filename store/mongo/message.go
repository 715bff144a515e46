package mongo

import (
	"time"

	"github.com/rbaliyan/privmsg/store"
)

// messageDoc is the MongoDB document representation.
type messageDoc struct {
	ID               int64     `bson:"_id"`
	SenderID         string    `bson:"sender_id"`
	RecipientID      string    `bson:"recipient_id"`
	SentOn           time.Time `bson:"sent_on"`
	Title            string    `bson:"title"`
	Body             string    `bson:"body"`
	BodyFormat       string    `bson:"body_format"`
	IsRead           bool      `bson:"is_read"`
	SenderVisible    bool      `bson:"sender_visible"`
	RecipientVisible bool      `bson:"recipient_visible"`
	Muted            bool      `bson:"muted"`
}

// counterDoc holds the last id handed out for a collection.
type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func newMessageDoc(id int64, data store.MessageData) *messageDoc {
	m := store.NewMessage(id, data)
	return &messageDoc{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		// BSON datetimes carry millisecond precision.
		SentOn:           m.SentOn.Truncate(time.Millisecond),
		Title:            m.Title,
		Body:             m.Body,
		BodyFormat:       m.BodyFormat,
		IsRead:           m.Read,
		SenderVisible:    m.SenderVisible,
		RecipientVisible: m.RecipientVisible,
		Muted:            m.Muted,
	}
}

func (d *messageDoc) toMessage() *store.Message {
	return &store.Message{
		ID:               d.ID,
		SenderID:         d.SenderID,
		RecipientID:      d.RecipientID,
		SentOn:           d.SentOn.UTC(),
		Title:            d.Title,
		Body:             d.Body,
		BodyFormat:       d.BodyFormat,
		Read:             d.IsRead,
		SenderVisible:    d.SenderVisible,
		RecipientVisible: d.RecipientVisible,
		Muted:            d.Muted,
	}
}
