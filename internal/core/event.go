package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies an entry in the monthly event history.
type EventType string

const (
	EventTransactionCreated EventType = "TRANSACTION_CREATED"
	EventTransactionUpdated EventType = "TRANSACTION_UPDATED"
	EventTransactionDeleted EventType = "TRANSACTION_DELETED"
	EventInstallmentCreated EventType = "INSTALLMENT_CREATED"
	EventInstallmentUpdated EventType = "INSTALLMENT_UPDATED"
	EventInstallmentPaid    EventType = "INSTALLMENT_PAID"
)

// Event is one append-only history record. The payload is an opaque JSON
// snapshot of whatever the operation touched.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent builds an event with a fresh ID. A zero timestamp defaults to
// now. Payload marshal failures fall back to an empty object so that the
// event itself is never lost to the sink.
func NewEvent(eventType EventType, payload any, timestamp time.Time) Event {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage(`{}`)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: timestamp,
		Payload:   raw,
	}
}

// MonthKey buckets the event by the calendar month of its timestamp,
// formatted YYYY-MM.
func (e Event) MonthKey() string {
	return e.Timestamp.UTC().Format("2006-01")
}
