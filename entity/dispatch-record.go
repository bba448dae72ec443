package entity

import (
	"time"
)

// DispatchRecord describes what happened to one inbound text message.
type DispatchRecord struct {
	ID          string    `json:"id" bson:"_id"`
	MessageID   string    `json:"message_id" bson:"message_id"`
	From        string    `json:"from" bson:"from"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty"`
	Text        string    `json:"text" bson:"text"`
	Greeting    bool      `json:"greeting" bson:"greeting"`
	Phrase      string    `json:"phrase,omitempty" bson:"phrase,omitempty"`
	Replied     bool      `json:"replied" bson:"replied"`
	ReplyID     string    `json:"reply_id,omitempty" bson:"reply_id,omitempty"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty"`
	ReceivedAt  time.Time `json:"received_at" bson:"received_at"`
	CompletedAt time.Time `json:"completed_at" bson:"completed_at"`
}
