package amqp

import (
	"testing"
	"time"
)

func TestScanJobMessageRoundTrip(t *testing.T) {
	msg := NewScanJobMessage(42, 7)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ScanJobMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ScanID != 42 || got.UserID != 7 {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Timestamp.Sub(msg.Timestamp) > time.Second {
		t.Fatalf("timestamp drifted: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestScanJobMessageFromInvalidJSON(t *testing.T) {
	if _, err := ScanJobMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
