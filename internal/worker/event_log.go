// Package worker runs the background companion process: it records every
// ledger event to an append-only event log and takes periodic portfolio
// snapshots so asset history survives outside the request path.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"moneytrack/internal/amqp"
	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

// eventRecord is one line in the JSONL event log.
type eventRecord struct {
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// EventLog appends ledger events to a JSONL file. Writes are serialized
// so concurrent deliveries cannot interleave lines.
type EventLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func NewEventLog(path string) (*EventLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create event log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &EventLog{file: f, enc: json.NewEncoder(f)}, nil
}

// HandleEvent records a single ledger event. Errors are returned so the
// delivery is requeued rather than lost.
func (w *EventLog) HandleEvent(event *amqp.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := eventRecord{
		Entity:     event.Entity,
		Action:     event.Action,
		ID:         event.ID,
		OccurredAt: event.Timestamp,
		RecordedAt: time.Now().UTC(),
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("append event record: %w", err)
	}
	return nil
}

func (w *EventLog) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// SnapshotWorker logs total assets at a fixed interval. It reads straight
// from the data source so it works against any backend.
type SnapshotWorker struct {
	data   datasource.DataSource
	oracle core.PriceOracle
}

func NewSnapshotWorker(data datasource.DataSource, oracle core.PriceOracle) *SnapshotWorker {
	return &SnapshotWorker{data: data, oracle: oracle}
}

// Run takes a snapshot immediately and then on every tick until ctx is done.
// A non-positive interval takes the initial snapshot only and returns.
func (w *SnapshotWorker) Run(ctx context.Context, interval time.Duration) {
	w.snapshot(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.snapshot(ctx)
		}
	}
}

func (w *SnapshotWorker) snapshot(ctx context.Context) {
	accounts, err := w.data.ListAccounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot failed loading accounts", "error", err)
		return
	}
	txs, err := w.data.ListTransactions(ctx, 0)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot failed loading transactions", "error", err)
		return
	}
	lots, err := w.data.ListHeldStockLots(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot failed loading stock lots", "error", err)
		return
	}

	var accountsTotal core.Money
	for _, b := range core.Balances(accounts, txs, core.Today()) {
		accountsTotal = accountsTotal.Add(b.Balance)
	}
	valuation := core.ValuePortfolio(ctx, lots, w.oracle)

	slog.InfoContext(ctx, "Portfolio snapshot",
		"accounts_total", accountsTotal.String(),
		"stocks_invested", valuation.Invested.StringFixed(2),
		"stocks_market_value", valuation.MarketValue.StringFixed(2),
		"held_lots", len(lots))
}
