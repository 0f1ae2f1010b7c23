package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Josehuhu/financeiro/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // shift overflow still capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"closed channel", errors.New("Exception (504) Reason: \"channel/connection is not open\""), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"protocol error", errors.New("PRECONDITION_FAILED - parameters differ"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClientCircuitBreaker(t *testing.T) {
	c := &Client{}

	if c.circuitOpen() {
		t.Error("circuit must start closed")
	}

	for i := 0; i < maxConsecutiveFailures; i++ {
		c.recordFailure()
	}
	if !c.circuitOpen() {
		t.Errorf("circuit must open after %d consecutive failures", maxConsecutiveFailures)
	}

	c.recordSuccess()
	if c.circuitOpen() {
		t.Error("a success must close the circuit")
	}
}

func TestClientCircuitBreakerCooldownExpiry(t *testing.T) {
	c := &Client{}
	for i := 0; i < maxConsecutiveFailures; i++ {
		c.recordFailure()
	}

	// Force the cooldown into the past; the circuit half-opens.
	c.mu.Lock()
	c.openUntil = time.Now().Add(-time.Second)
	c.mu.Unlock()

	if c.circuitOpen() {
		t.Error("circuit must allow attempts after the cooldown expires")
	}
}

func TestNewEventMessage(t *testing.T) {
	event := core.NewEvent(core.EventInstallmentPaid, map[string]string{"id": "i1"}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	msg := NewEventMessage(event)
	if msg.ID != event.ID {
		t.Errorf("expected ID %s, got %s", event.ID, msg.ID)
	}
	if msg.Type != core.EventInstallmentPaid {
		t.Errorf("expected type %s, got %s", core.EventInstallmentPaid, msg.Type)
	}
	if !msg.Timestamp.Equal(event.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", event.Timestamp, msg.Timestamp)
	}

	back := msg.Event()
	if back.ID != event.ID || back.Type != event.Type {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestEventMessageJSON(t *testing.T) {
	event := core.NewEvent(core.EventTransactionCreated, map[string]string{"id": "t1"}, time.Now().UTC())
	msg := NewEventMessage(event)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	decoded, err := EventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.ID != msg.ID || decoded.Type != msg.Type {
		t.Errorf("round trip mismatch: %+v", decoded)
	}

	var payload map[string]string
	if err := json.Unmarshal(decoded.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["id"] != "t1" {
		t.Errorf("expected payload id t1, got %q", payload["id"])
	}
}

func TestEventMessageInvalidJSON(t *testing.T) {
	if _, err := EventMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
