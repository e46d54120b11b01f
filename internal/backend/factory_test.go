package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moneytrack/internal/config"
	"moneytrack/internal/datasource"
)

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.Create(context.Background(), &config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cats, err := res.Data.ListCategories(context.Background(), datasource.FilterAll)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("memory backend should be seeded with default categories")
	}
	if res.Events != nil {
		t.Fatal("memory backend should not carry an event publisher")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	cfg := &config.Config{
		DataBackend:    "sqlite",
		SQLiteDBPath:   filepath.Join(t.TempDir(), "factory.db"),
		QuoteCacheSize: 1,
		QuoteCacheTTL:  time.Minute,
	}
	res, err := f.Create(context.Background(), cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer res.Cleanup()

	if _, err := res.Data.ListTransactions(context.Background(), 0); err != nil {
		t.Fatalf("list transactions on fresh db: %v", err)
	}
}

func TestCreateUnknownBackend(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.Create(context.Background(), &config.Config{DataBackend: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
