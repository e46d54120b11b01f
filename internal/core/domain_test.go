package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:     NewDate(2024, 1, 1),
		Kind:     Expense,
		Category: "Food",
		Amount:   Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: Expense, Category: "Food", Amount: Money{Cents: 1}}, // zero date
		{Date: NewDate(2024, 1, 1), Kind: "Transfer", Category: "Food", Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 1, 1), Kind: Income, Category: " ", Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 1, 1), Kind: Income, Category: "Salary", Amount: Money{Cents: 0}},
		{Date: NewDate(2024, 1, 1), Kind: Income, Category: "Salary", Amount: Money{Cents: -5}},
	}
	for i, tc := range bads {
		if err := tc.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestTransactionDescriptionLimitCountsRunes(t *testing.T) {
	tx := Transaction{
		Date:     NewDate(2024, 1, 1),
		Kind:     Expense,
		Category: "Food",
		Amount:   Money{Cents: 100},
	}

	// 200 multi-byte runes are within the limit even though the byte
	// length is far over it.
	tx.Description = strings.Repeat("晚", 200)
	if err := tx.Validate(); err != nil {
		t.Fatalf("200-rune description rejected: %v", err)
	}

	tx.Description = strings.Repeat("晚", 201)
	if !errors.Is(tx.Validate(), ErrDescriptionLong) {
		t.Fatal("201-rune description should exceed the limit")
	}
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Kind: Income, Amount: Money{Cents: 250}}
	out := Transaction{Kind: Expense, Amount: Money{Cents: 250}}
	if in.Signed().Cents != 250 {
		t.Errorf("income signed = %d, want 250", in.Signed().Cents)
	}
	if out.Signed().Cents != -250 {
		t.Errorf("expense signed = %d, want -250", out.Signed().Cents)
	}
}

func TestStockLotValidate(t *testing.T) {
	good := StockLot{
		Symbol:   "2330.TW",
		BuyDate:  NewDate(2024, 3, 1),
		BuyPrice: decimal.RequireFromString("593.5"),
		Quantity: decimal.NewFromInt(100),
		Status:   LotHeld,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*StockLot)
	}{
		{func(l *StockLot) { l.Symbol = "" }},
		{func(l *StockLot) { l.BuyDate = Date{} }},
		{func(l *StockLot) { l.BuyPrice = decimal.Zero }},
		{func(l *StockLot) { l.Quantity = decimal.NewFromInt(-1) }},
		{func(l *StockLot) { l.BrokerFee = decimal.NewFromInt(-1) }},
		{func(l *StockLot) { l.Status = "Pending" }},
	}
	for i, tc := range cases {
		l := good
		tc.mutate(&l)
		if err := l.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 2, 10)
	if d.MonthKey() != "2024-02" {
		t.Errorf("MonthKey = %s", d.MonthKey())
	}
	if got := d.MonthEnd().String(); got != "2024-02-29" {
		t.Errorf("MonthEnd = %s, want 2024-02-29 (leap year)", got)
	}
	if got := NewDate(2023, 12, 1).MonthEnd().String(); got != "2023-12-31" {
		t.Errorf("MonthEnd = %s, want 2023-12-31", got)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("expected parse error for month 13")
	}
}

func TestValidateMonthKey(t *testing.T) {
	if err := ValidateMonthKey("2024-07"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"", "2024", "2024-7", "07-2024", "2024-00"} {
		if err := ValidateMonthKey(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
