package amqp

import (
	"encoding/json"
	"time"

	"github.com/Josehuhu/financeiro/internal/core"
)

// EventMessage is the wire form of a ledger event published to the
// exchange. Consumers mirror it into their own history store.
type EventMessage struct {
	ID        string          `json:"id"`
	Type      core.EventType  `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEventMessage converts a domain event to its wire form.
func NewEventMessage(event core.Event) *EventMessage {
	return &EventMessage{
		ID:        event.ID,
		Type:      event.Type,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	}
}

// Event converts the message back to the domain event.
func (m *EventMessage) Event() core.Event {
	return core.Event{
		ID:        m.ID,
		Type:      m.Type,
		Timestamp: m.Timestamp,
		Payload:   m.Payload,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
