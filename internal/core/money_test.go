package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for i, tc := range cases {
		m, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Errorf("case %d (%q): unexpected error %v", i, tc.in, err)
			continue
		}
		if !tc.ok && err == nil {
			t.Errorf("case %d (%q): expected error", i, tc.in)
			continue
		}
		if tc.ok && m.Cents != tc.cents {
			t.Errorf("case %d (%q): expected %d cents, got %d", i, tc.in, tc.cents, m.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{-100, "-1.00"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	in := Money{Cents: 1234}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.34" {
		t.Errorf("expected wire value 12.34, got %s", data)
	}

	var out Money
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip: expected %v, got %v", in, out)
	}
}

func TestMoneyUnmarshalRejectsGarbage(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"not-a-number"`), &m); err == nil {
		t.Error("expected error for non-numeric value")
	}
}
