package amqp

import (
	"context"
	"testing"
	"time"
)

func TestLedgerEventJSON(t *testing.T) {
	event := NewLedgerEvent("transaction", "created", 42)
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != "transaction" || got.Action != "created" || got.ID != 42 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.Sub(event.Timestamp) > time.Second {
		t.Fatalf("timestamp drifted: %v vs %v", got.Timestamp, event.Timestamp)
	}
}

func TestLedgerEventFromBadJSON(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client
	if err := c.PublishLedgerEvent(context.Background(), "transaction", "created", 1); err != nil {
		t.Fatalf("nil client publish = %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close = %v, want nil", err)
	}
}
