package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"

	"WaReply/entity"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrNoMessage        = errors.New("no message in payload")
	ErrUnsupportedType  = errors.New("unsupported message type")
)

// DecodeError explains why a webhook delivery yielded no text message.
// Level names the missing part of the payload or the rejected message type.
type DecodeError struct {
	Reason error
	Level  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := e.Reason.Error()
	if e.Level != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Level)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Reason
}

// WebhookPayload represents the incoming webhook payload from WhatsApp
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value *struct {
				MessagingProduct string `json:"messaging_product"`
				Metadata         struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body *string `json:"body"`
					} `json:"text,omitempty"`
				} `json:"messages"`
			} `json:"value"`
			Field string `json:"field"`
		} `json:"changes"`
	} `json:"entry"`
}

// DecodeEvent converts a raw delivery into the first text message of the
// first change of the first entry.
func DecodeEvent(body []byte) (*entity.InboundEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DecodeError{Reason: ErrMalformedPayload, Err: err}
	}

	if len(payload.Entry) == 0 {
		return nil, &DecodeError{Reason: ErrNoMessage, Level: "entry"}
	}
	entry := payload.Entry[0]

	if len(entry.Changes) == 0 {
		return nil, &DecodeError{Reason: ErrNoMessage, Level: "changes"}
	}
	value := entry.Changes[0].Value
	if value == nil {
		return nil, &DecodeError{Reason: ErrNoMessage, Level: "value"}
	}

	if len(value.Messages) == 0 {
		return nil, &DecodeError{Reason: ErrNoMessage, Level: "messages"}
	}
	message := value.Messages[0]

	if message.Type != entity.MessageTypeText {
		return nil, &DecodeError{Reason: ErrUnsupportedType, Level: message.Type}
	}
	if message.Text == nil || message.Text.Body == nil {
		return nil, &DecodeError{Reason: ErrMalformedPayload, Level: "text.body"}
	}

	event := &entity.InboundEvent{
		MessageID: message.ID,
		From:      message.From,
		Type:      message.Type,
		Text:      *message.Text.Body,
		Timestamp: message.Timestamp,
	}
	for _, c := range value.Contacts {
		if c.WaID == message.From {
			event.Name = c.Profile.Name
			break
		}
	}

	return event, nil
}
