package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

func TestTransactionsNewestFirstWithLimit(t *testing.T) {
	s := New()
	ctx := context.Background()
	dates := []core.Date{
		core.NewDate(2024, 1, 5),
		core.NewDate(2024, 3, 1),
		core.NewDate(2024, 2, 10),
	}
	for _, d := range dates {
		_, err := s.AddTransaction(ctx, core.Transaction{
			Date: d, Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 100},
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := s.ListTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit ignored: got %d entries", len(got))
	}
	if got[0].Date.String() != "2024-03-01" || got[1].Date.String() != "2024-02-10" {
		t.Fatalf("wrong order: %s, %s", got[0].Date, got[1].Date)
	}
}

func TestTransactionsSameDayNewestIDFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := core.NewDate(2024, 5, 1)
	var ids []int64
	for _, cat := range []string{"Food", "Transport", "Rent"} {
		id, err := s.AddTransaction(ctx, core.Transaction{
			Date: day, Kind: core.Expense, Category: cat, Amount: core.Money{Cents: 100},
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := s.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for i, want := range []int64{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Fatalf("position %d has id %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddTransaction(ctx, core.Transaction{
		Date: core.NewDate(2024, 1, 1), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 100},
	})

	updated := core.Transaction{
		ID: id, Date: core.NewDate(2024, 1, 2), Kind: core.Income, Category: "Salary", Amount: core.Money{Cents: 999},
	}
	if err := s.UpdateTransaction(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := s.ListTransactions(ctx, 0)
	if list[0].Kind != core.Income || list[0].Amount.Cents != 999 {
		t.Fatalf("update not applied: %+v", list[0])
	}

	if err := s.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, id); !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDuplicateAccountName(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.AddAccount(ctx, core.Account{Name: "Richart", Type: core.AccountBank}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := s.AddAccount(ctx, core.Account{Name: "richart", Type: core.AccountCash})
	if !errors.Is(err, datasource.ErrDuplicate) {
		t.Fatalf("duplicate name = %v, want ErrDuplicate", err)
	}
}

func TestDeleteAccountLeavesOrphans(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank})
	_, _ = s.AddTransaction(ctx, core.Transaction{
		Date: core.NewDate(2024, 1, 1), Kind: core.Expense, Category: "Food",
		Amount: core.Money{Cents: 100}, AccountID: id,
	})

	if err := s.DeleteAccount(ctx, id); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	txs, _ := s.ListTransactions(ctx, 0)
	if len(txs) != 1 || txs[0].AccountID != id {
		t.Fatalf("orphaned transaction lost or rewritten: %+v", txs)
	}
}

func TestCategoryFilterIncludesBoth(t *testing.T) {
	s := NewSeeded()
	cats, err := s.ListCategories(context.Background(), datasource.FilterOnlyIncome)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := map[string]bool{}
	for _, c := range cats {
		names[c.Name] = true
	}
	for _, want := range []string{"Salary", "Bonus", "Investment", "Other"} {
		if !names[want] {
			t.Errorf("income filter missing %q", want)
		}
	}
	if names["Food"] {
		t.Error("income filter returned expense-only category")
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AddCategory(ctx, core.Category{Name: "Food", AppliesTo: core.CategoryExpense})
	_, _ = s.AddTransaction(ctx, core.Transaction{
		Date: core.NewDate(2024, 1, 1), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 1},
	})

	if err := s.DeleteCategory(ctx, id); !errors.Is(err, datasource.ErrInUse) {
		t.Fatalf("delete in-use category = %v, want ErrInUse", err)
	}
	if err := s.DeleteTransaction(ctx, 2); err != nil {
		t.Fatalf("delete tx: %v", err)
	}
	if err := s.DeleteCategory(ctx, id); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
}

func TestBudgetUpsertAndDefault(t *testing.T) {
	s := New()
	ctx := context.Background()
	got, err := s.GetBudget(ctx, "2024-05")
	if err != nil || got.Cents != 0 {
		t.Fatalf("unset budget = %v, %v; want 0", got, err)
	}
	if err := s.SetBudget(ctx, "2024-05", core.Money{Cents: 3000000}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetBudget(ctx, "2024-05", core.Money{Cents: 2500000}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = s.GetBudget(ctx, "2024-05")
	if got.Cents != 2500000 {
		t.Fatalf("budget after upsert = %v, want 25000.00", got)
	}
	if err := s.SetBudget(ctx, "May 2024", core.Money{Cents: 1}); err == nil {
		t.Fatal("expected month key validation error")
	}
}

func TestHeldLotsOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	held := core.StockLot{Symbol: "AAPL", BuyDate: core.NewDate(2024, 1, 1),
		BuyPrice: decimal.NewFromInt(150), Quantity: decimal.NewFromInt(10)}
	sold := held
	sold.Symbol = "TSLA"
	sold.Status = core.LotSold

	if _, err := s.AddStockLot(ctx, held); err != nil {
		t.Fatalf("add held: %v", err)
	}
	if _, err := s.AddStockLot(ctx, sold); err != nil {
		t.Fatalf("add sold: %v", err)
	}
	lots, _ := s.ListHeldStockLots(ctx)
	if len(lots) != 1 || lots[0].Symbol != "AAPL" {
		t.Fatalf("held lots = %+v, want only AAPL", lots)
	}
	if lots[0].Status != core.LotHeld {
		t.Fatalf("status not defaulted: %s", lots[0].Status)
	}
}
