package core

import (
	"encoding/json"
	"time"
)

// MessageKind distinguishes the four message shapes the coordinator routes.
type MessageKind string

const (
	MessageKindRequest  MessageKind = "request"
	MessageKindResponse MessageKind = "response"
	MessageKindEvent    MessageKind = "event"
	MessageKindError    MessageKind = "error"
)

// DefaultPriority is applied to any message that does not set one.
const DefaultPriority = 5

// Message is the immutable envelope routed between agents. Once appended to
// history it must never be mutated — callers that need to react to a
// message should copy fields they intend to change.
type Message struct {
	ID            string          `json:"id"`
	Kind          MessageKind     `json:"kind"`
	Sender        string          `json:"sender"`
	Recipient     string          `json:"recipient"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Priority      int             `json:"priority"`
	CreatedAt     time.Time       `json:"created_at"`
	TimeoutMS     int             `json:"timeout_ms,omitempty"`
}

// NewRequest builds a request message with sane defaults (id and timestamp
// are expected to be stamped by the caller — typically the coordinator —
// so this helper only fills in what's knowable at construction time).
func NewRequest(sender, recipient string, payload json.RawMessage) Message {
	return Message{
		Kind:      MessageKindRequest,
		Sender:    sender,
		Recipient: recipient,
		Payload:   payload,
		Priority:  DefaultPriority,
	}
}

// NewErrorMessage builds a synthetic error response correlated to request.
func NewErrorMessage(id, sender, recipient string, request Message, payload json.RawMessage) Message {
	return Message{
		ID:            id,
		Kind:          MessageKindError,
		Sender:        sender,
		Recipient:     recipient,
		CorrelationID: request.ID,
		Payload:       payload,
		Priority:      request.Priority,
		CreatedAt:     time.Now(),
	}
}

// ToolErrorPayload is the JSON shape carried by error-kind messages so
// agents and the coordinator agree on how to unmarshal Message.Payload.
type ToolErrorPayload struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}
