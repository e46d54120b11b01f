package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"moneytrack/internal/amqp"
	"moneytrack/internal/datasource/memory"
)

func TestEventLogAppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "ledger.jsonl")
	w, err := NewEventLog(path)
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	events := []*amqp.LedgerEvent{
		amqp.NewLedgerEvent("transaction", "created", 1),
		amqp.NewLedgerEvent("account", "deleted", 7),
	}
	for _, e := range events {
		if err := w.HandleEvent(e); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec struct {
			Entity     string    `json:"entity"`
			Action     string    `json:"action"`
			ID         int64     `json:"id"`
			RecordedAt time.Time `json:"recorded_at"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines+1, err)
		}
		want := events[lines]
		if rec.Entity != want.Entity || rec.Action != want.Action || rec.ID != want.ID {
			t.Fatalf("line %d = %+v, want %+v", lines+1, rec, want)
		}
		if rec.RecordedAt.IsZero() {
			t.Fatalf("line %d missing recorded_at", lines+1)
		}
		lines++
	}
	if lines != len(events) {
		t.Fatalf("event log has %d lines, want %d", lines, len(events))
	}
}

func TestEventLogReopensForAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")

	for i := 0; i < 2; i++ {
		w, err := NewEventLog(path)
		if err != nil {
			t.Fatalf("NewEventLog: %v", err)
		}
		if err := w.HandleEvent(amqp.NewLedgerEvent("budget", "updated", int64(i))); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	var lines int
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("event log has %d lines after reopen, want 2", lines)
	}
}

func TestSnapshotWorkerZeroIntervalReturnsAfterInitialSnapshot(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewSnapshotWorker(memory.New(), nil).Run(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return with a zero interval")
	}
}

func TestSnapshotWorkerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewSnapshotWorker(memory.New(), nil).Run(ctx, time.Minute)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
