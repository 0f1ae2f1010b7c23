package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInstallmentLabel(t *testing.T) {
	cases := []struct {
		number, total int
		want          string
	}{
		{1, 1, LumpSumLabel},
		{1, 12, "1/12"},
		{3, 12, "3/12"},
		{12, 12, "12/12"},
	}
	for _, tc := range cases {
		inst := Installment{InstallmentNumber: tc.number, TotalInstallments: tc.total}
		if got := inst.Label(); got != tc.want {
			t.Errorf("Label(%d/%d) = %q, want %q", tc.number, tc.total, got, tc.want)
		}
	}
}

func TestTransactionTypeIsValid(t *testing.T) {
	if !Income.IsValid() || !Expense.IsValid() {
		t.Error("INCOME and EXPENSE must be valid")
	}
	if TransactionType("TRANSFER").IsValid() {
		t.Error("unknown type must be invalid")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 3, 15)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-03-15"` {
		t.Errorf("expected \"2025-03-15\", got %s", data)
	}

	var plain Date
	if err := json.Unmarshal(data, &plain); err != nil {
		t.Fatalf("unmarshal date-only: %v", err)
	}
	if !plain.Equal(d.Time) {
		t.Errorf("round trip: expected %s, got %s", d, plain)
	}

	// Full RFC 3339 timestamps keep only the calendar date.
	var fromTS Date
	if err := json.Unmarshal([]byte(`"2025-03-15T18:30:00Z"`), &fromTS); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if !fromTS.Equal(d.Time) {
		t.Errorf("expected %s from timestamp, got %s", d, fromTS)
	}
}

func TestDateFirstOfMonth(t *testing.T) {
	d := NewDate(2025, 7, 23)
	if got := d.FirstOfMonth(); !got.Equal(NewDate(2025, 7, 1).Time) {
		t.Errorf("expected 2025-07-01, got %s", got)
	}
}

func TestDateOfTruncatesTime(t *testing.T) {
	ts := time.Date(2025, 7, 23, 17, 45, 12, 0, time.UTC)
	if got := DateOf(ts); !got.Equal(NewDate(2025, 7, 23).Time) {
		t.Errorf("expected 2025-07-23, got %s", got)
	}
}
