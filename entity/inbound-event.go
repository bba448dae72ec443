package entity

// InboundEvent is the single text message consumed from a webhook delivery.
type InboundEvent struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
