package google

import (
	"testing"

	"github.com/shopspring/decimal"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

func stockCost(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(cells ...string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func TestParseTransactions(t *testing.T) {
	values := [][]interface{}{
		row("ID", "Date", "Kind", "Category", "Description", "Amount", "Account"),
		row("1", "2024-01-05", "Expense", "Food", "lunch", "120.50", "2"),
		row("2", "2024-02-10", "income", "Salary", "", "50,000", ""),
		row("", "", "", "", "", "", ""), // trailing blank row
	}

	txs, err := parseTransactions(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	// Newest first.
	if txs[0].ID != 2 || txs[0].Kind != core.Income || txs[0].Amount.Cents != 5000000 {
		t.Errorf("first tx = %+v", txs[0])
	}
	if txs[1].Category != "Food" || txs[1].Description != "lunch" ||
		txs[1].Amount.Cents != 12050 || txs[1].AccountID != 2 {
		t.Errorf("second tx = %+v", txs[1])
	}
}

func TestParseTransactionsBadKind(t *testing.T) {
	values := [][]interface{}{
		row("Date", "Kind", "Category", "Amount"),
		row("2024-01-05", "Transfer", "Food", "10"),
	}
	if _, err := parseTransactions(values); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseAccounts(t *testing.T) {
	values := [][]interface{}{
		row("ID", "Name", "Type", "Initial Balance"),
		row("1", "Cathay USD", "Bank", "1000.00"),
		row("2", "Wallet", "Cash", ""),
	}
	accounts, err := parseAccounts(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	if accounts[0].InitialBalance.Cents != 100000 || accounts[0].Type != core.AccountBank {
		t.Errorf("first account = %+v", accounts[0])
	}
	if accounts[1].InitialBalance.Cents != 0 {
		t.Errorf("blank balance should default to zero: %+v", accounts[1])
	}
}

func TestParseStockLotsSkipsSold(t *testing.T) {
	values := [][]interface{}{
		row("Symbol", "Buy Date", "Buy Price", "Quantity", "Broker Fee", "Transaction Fee", "Status"),
		row("aapl", "2024-01-02", "150.25", "10", "5", "2", "Held"),
		row("TSLA", "2024-01-03", "200", "5", "", "", "Sold"),
		row("2330.TW", "2024-01-04", "785.5", "100", "20", "", ""),
	}
	lots, err := parseStockLots(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("got %d lots, want 2 (sold filtered)", len(lots))
	}
	if lots[0].Symbol != "AAPL" {
		t.Errorf("symbol not uppercased: %q", lots[0].Symbol)
	}
	if !lots[0].CostBasis().Equal(stockCost("1509.5")) {
		t.Errorf("cost basis = %s, want 1509.5", lots[0].CostBasis())
	}
	if lots[1].Status != core.LotHeld {
		t.Errorf("blank status should default to Held: %+v", lots[1])
	}
}

func TestParseBudgets(t *testing.T) {
	values := [][]interface{}{
		row("Month", "Amount"),
		row("2024-03", "30,000"),
	}
	budgets, err := parseBudgets(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if budgets["2024-03"].Cents != 3000000 {
		t.Errorf("budget = %+v", budgets["2024-03"])
	}

	bad := [][]interface{}{
		row("Month", "Amount"),
		row("March 2024", "1"),
	}
	if _, err := parseBudgets(bad); err == nil {
		t.Fatal("expected month key error")
	}
}

func TestFilterCategories(t *testing.T) {
	cats := []core.Category{
		{Name: "Food", AppliesTo: core.CategoryExpense},
		{Name: "Salary", AppliesTo: core.CategoryIncome},
		{Name: "Other", AppliesTo: core.CategoryBoth},
	}

	got := filterCategories(cats, datasource.FilterOnlyIncome)
	if len(got) != 2 || got[0].Name != "Salary" || got[1].Name != "Other" {
		t.Fatalf("income filter = %+v", got)
	}
	if got := filterCategories(cats, datasource.FilterAll); len(got) != 3 {
		t.Fatalf("all filter = %+v", got)
	}
}
