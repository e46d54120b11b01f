package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "Income"
	Expense TransactionKind = "Expense"
)

const (
	AccountBank       AccountType = "Bank"
	AccountCreditCard AccountType = "Credit Card"
	AccountCash       AccountType = "Cash"
	AccountInvestment AccountType = "Investment"
	AccountOther      AccountType = "Other"
	// AccountFixedDeposit is an explicit tag recognized by the asset classifier.
	AccountFixedDeposit AccountType = "Fixed Deposit"
)

const (
	CategoryExpense CategoryType = "Expense"
	CategoryIncome  CategoryType = "Income"
	CategoryBoth    CategoryType = "Both"
)

const (
	LotHeld LotStatus = "Held"
	LotSold LotStatus = "Sold"
)

type (
	TransactionKind string
	AccountType     string
	CategoryType    string
	LotStatus       string

	// Date is a calendar day. The zero value means "unset".
	Date struct {
		time.Time
	}

	// Transaction is a single dated ledger entry. Amount is always stored
	// non-negative; the sign is derived from Kind at aggregation time.
	Transaction struct {
		ID          int64
		Date        Date
		Kind        TransactionKind
		Category    string
		Amount      Money
		AccountID   int64 // 0 when the entry is not linked to an account
		Description string
	}

	Account struct {
		ID             int64
		Name           string
		Type           AccountType
		InitialBalance Money
	}

	Category struct {
		ID        int64
		Name      string
		AppliesTo CategoryType
	}

	// StockLot records a single stock purchase. Only Held lots participate
	// in portfolio and asset calculations.
	StockLot struct {
		ID             int64
		Symbol         string
		BuyDate        Date
		BuyPrice       decimal.Decimal
		Quantity       decimal.Decimal
		BrokerFee      decimal.Decimal
		TransactionFee decimal.Decimal
		Status         LotStatus
	}

	// Budget is the spending target for one calendar month, keyed "YYYY-MM".
	Budget struct {
		Month  string
		Amount Money
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid type")
	ErrEmptySymbol      = errors.New("empty stock symbol")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidBuyPrice  = errors.New("buy price must be positive")
	ErrInvalidMonthKey  = errors.New("month must be formatted YYYY-MM")
	ErrNegativeFee      = errors.New("fees cannot be negative")
	ErrInvalidLotStatus = errors.New("invalid lot status")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
)

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in UTC.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the calendar month of the date as "YYYY-MM".
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// MonthEnd returns the last day of the date's calendar month.
func (d Date) MonthEnd() Date {
	y, m, _ := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Date{Time: first.AddDate(0, 1, -1)}
}

// After reports whether d falls on a later day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCreditCard, AccountCash, AccountInvestment, AccountOther, AccountFixedDeposit:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryExpense, CategoryIncome, CategoryBoth:
		return true
	}
	return false
}

func (s LotStatus) Valid() bool {
	return s == LotHeld || s == LotSold
}

// Signed returns the transaction's contribution to a balance: positive for
// income, negative for expense.
func (t Transaction) Signed() Money {
	if t.Kind == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if utf8.RuneCountInString(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.AppliesTo.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (l StockLot) Validate() error {
	if strings.TrimSpace(l.Symbol) == "" {
		return ErrEmptySymbol
	}
	if err := l.BuyDate.Validate(); err != nil {
		return err
	}
	if !l.BuyPrice.IsPositive() {
		return ErrInvalidBuyPrice
	}
	if !l.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if l.BrokerFee.IsNegative() || l.TransactionFee.IsNegative() {
		return ErrNegativeFee
	}
	if l.Status != "" && !l.Status.Valid() {
		return ErrInvalidLotStatus
	}
	return nil
}

// CostBasis is the total amount paid to acquire the lot: buy price times
// quantity plus both fees.
func (l StockLot) CostBasis() decimal.Decimal {
	return l.BuyPrice.Mul(l.Quantity).Add(l.BrokerFee).Add(l.TransactionFee)
}

func (b Budget) Validate() error {
	if err := ValidateMonthKey(b.Month); err != nil {
		return err
	}
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateMonthKey checks a "YYYY-MM" month key.
func ValidateMonthKey(s string) error {
	if _, err := time.Parse("2006-01", s); err != nil {
		return ErrInvalidMonthKey
	}
	return nil
}
