// Package memory is an in-process DataSource used by tests and as the
// zero-configuration default backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

type Store struct {
	mu     sync.Mutex
	nextID int64

	transactions []core.Transaction
	accounts     []core.Account
	categories   []core.Category
	lots         []core.StockLot
	budgets      map[string]core.Money
}

var _ datasource.DataSource = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1, budgets: make(map[string]core.Money)}
}

// NewSeeded returns a store preloaded with the default category set, the
// same list a fresh SQLite database is seeded with.
func NewSeeded() *Store {
	s := New()
	defaults := []core.Category{
		{Name: "Food", AppliesTo: core.CategoryExpense},
		{Name: "Transport", AppliesTo: core.CategoryExpense},
		{Name: "Entertainment", AppliesTo: core.CategoryExpense},
		{Name: "Shopping", AppliesTo: core.CategoryExpense},
		{Name: "Bills", AppliesTo: core.CategoryExpense},
		{Name: "Housing", AppliesTo: core.CategoryExpense},
		{Name: "Health", AppliesTo: core.CategoryExpense},
		{Name: "Education", AppliesTo: core.CategoryExpense},
		{Name: "Investment", AppliesTo: core.CategoryBoth},
		{Name: "Salary", AppliesTo: core.CategoryIncome},
		{Name: "Bonus", AppliesTo: core.CategoryIncome},
		{Name: "Other", AppliesTo: core.CategoryBoth},
	}
	for _, c := range defaults {
		_, _ = s.AddCategory(context.Background(), c)
	}
	return s
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.transactions...)
	// Newest first, same-day ties broken by descending ID to match the
	// other backends.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.allocID()
	s.transactions = append(s.transactions, tx)
	return tx.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			s.transactions[i] = tx
			return nil
		}
	}
	return datasource.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return datasource.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) AddAccount(_ context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Name, a.Name) {
			return 0, datasource.ErrDuplicate
		}
	}
	a.ID = s.allocID()
	s.accounts = append(s.accounts, a)
	return a.ID, nil
}

// DeleteAccount removes the account only. Its transactions keep their
// dangling reference, exactly like the SQLite backend.
func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return datasource.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, filter datasource.CategoryFilter) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if filter != datasource.FilterAll &&
			c.AppliesTo != core.CategoryType(filter) && c.AppliesTo != core.CategoryBoth {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AddCategory(_ context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return 0, datasource.ErrDuplicate
		}
	}
	c.ID = s.allocID()
	s.categories = append(s.categories, c)
	return c.ID, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.categories {
		if s.categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return datasource.ErrNotFound
	}
	for _, tx := range s.transactions {
		if tx.Category == s.categories[idx].Name {
			return datasource.ErrInUse
		}
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	return nil
}

func (s *Store) ListHeldStockLots(_ context.Context) ([]core.StockLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.StockLot, 0, len(s.lots))
	for _, l := range s.lots {
		if l.Status == core.LotHeld {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) AddStockLot(_ context.Context, l core.StockLot) (int64, error) {
	if l.Status == "" {
		l.Status = core.LotHeld
	}
	if err := l.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.allocID()
	s.lots = append(s.lots, l)
	return l.ID, nil
}

func (s *Store) GetBudget(_ context.Context, month string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets[month], nil
}

func (s *Store) SetBudget(_ context.Context, month string, amount core.Money) error {
	if err := core.ValidateMonthKey(month); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[month] = amount
	return nil
}
