package core

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "plain decimal", input: "94.89", wantCents: 9489},
		{name: "whole number", input: "100", wantCents: 10000},
		{name: "rounds half up", input: "12.345", wantCents: 1235},
		{name: "negative allowed by parser", input: "-3.50", wantCents: -350},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoney(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoney(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if m.Cents() != tt.wantCents {
				t.Errorf("ParseMoney(%q).Cents() = %d, want %d", tt.input, m.Cents(), tt.wantCents)
			}
		})
	}
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := MoneyFromCents(9489)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "94.89" {
		t.Errorf("marshal = %s, want unquoted 94.89", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("round trip = %s, want %s", back, m)
	}

	// Quoted strings are accepted too.
	var quoted Money
	if err := json.Unmarshal([]byte(`"12.50"`), &quoted); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if quoted.Cents() != 1250 {
		t.Errorf("quoted cents = %d, want 1250", quoted.Cents())
	}
}

func TestMoney_MinAndClamp(t *testing.T) {
	balance := MoneyFromCents(5000)
	payment := MoneyFromCents(9489)

	applied := payment.Min(balance)
	if !applied.Equal(balance) {
		t.Errorf("applied = %s, want clamped to %s", applied, balance)
	}

	remaining := balance.Sub(applied)
	if !remaining.IsZero() {
		t.Errorf("remaining = %s, want 0", remaining)
	}
}

func TestMoney_Validate(t *testing.T) {
	if err := MoneyFromCents(0).Validate(); err != nil {
		t.Errorf("zero should validate, got %v", err)
	}
	if err := MoneyFromCents(-1).Validate(); err == nil {
		t.Error("negative should not validate")
	}
}
