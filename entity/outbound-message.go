package entity

import (
	"WaReply/internal/lib/validate"
)

const (
	MessagingProductWhatsApp = "whatsapp"
	MessageTypeText          = "text"
)

type TextBody struct {
	Body string `json:"body" validate:"required"`
}

// OutboundMessage is the Graph API envelope for a text reply.
type OutboundMessage struct {
	MessagingProduct string   `json:"messaging_product" validate:"required,eq=whatsapp"`
	To               string   `json:"to" validate:"required"`
	Type             string   `json:"type" validate:"required,eq=text"`
	Text             TextBody `json:"text"`
}

func NewTextMessage(to, body string) OutboundMessage {
	return OutboundMessage{
		MessagingProduct: MessagingProductWhatsApp,
		To:               to,
		Type:             MessageTypeText,
		Text:             TextBody{Body: body},
	}
}

func (m *OutboundMessage) Validate() error {
	return validate.Struct(m)
}

// SendResult is the Graph API response to a successful send.
type SendResult struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (r *SendResult) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}
