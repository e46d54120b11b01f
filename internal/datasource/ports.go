// Package datasource defines the ports every ledger data backend implements.
//
// Two behaviorally equivalent backends exist (SQLite store, read-only Google
// Sheets) plus an in-memory store for tests; the choice is made once at
// startup by internal/backend, never by runtime fallback.
package datasource

import (
	"context"
	"errors"

	"moneytrack/internal/core"
)

// CategoryFilter narrows ListCategories. Filtered queries include categories
// tagged Both.
type CategoryFilter string

const (
	FilterAll         CategoryFilter = ""
	FilterOnlyExpense CategoryFilter = "Expense"
	FilterOnlyIncome  CategoryFilter = "Income"
)

var (
	// ErrNotFound is returned for updates/deletes of a missing id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique name already exists.
	ErrDuplicate = errors.New("name already exists")
	// ErrInUse is returned when deleting a category still referenced by
	// a transaction.
	ErrInUse = errors.New("category is referenced by transactions")
	// ErrReadOnly is returned by write operations on the sheets backend.
	ErrReadOnly = errors.New("data source is read-only")
)

type (
	// TransactionReader lists ledger entries newest-first.
	TransactionReader interface {
		// ListTransactions returns at most limit entries; limit <= 0
		// means no limit.
		ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}

	AccountReader interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	AccountWriter interface {
		AddAccount(ctx context.Context, a core.Account) (int64, error)
		DeleteAccount(ctx context.Context, id int64) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context, filter CategoryFilter) ([]core.Category, error)
	}

	CategoryWriter interface {
		AddCategory(ctx context.Context, c core.Category) (int64, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	// StockLotReader lists lots still held; sold lots never surface.
	StockLotReader interface {
		ListHeldStockLots(ctx context.Context) ([]core.StockLot, error)
	}

	StockLotWriter interface {
		AddStockLot(ctx context.Context, l core.StockLot) (int64, error)
	}

	// BudgetStore reads and upserts per-month budgets. GetBudget returns
	// zero for an unset month.
	BudgetStore interface {
		GetBudget(ctx context.Context, month string) (core.Money, error)
		SetBudget(ctx context.Context, month string, amount core.Money) error
	}
)

// DataSource is the full capability surface a backend provides. The sheets
// backend satisfies it too, with writes returning ErrReadOnly.
type DataSource interface {
	TransactionReader
	TransactionWriter
	AccountReader
	AccountWriter
	CategoryReader
	CategoryWriter
	StockLotReader
	StockLotWriter
	BudgetStore
}
