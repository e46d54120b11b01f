// Package services orchestrates ledger operations across the data source,
// the price oracle, and the optional event broker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

// EventPublisher announces ledger mutations. Publishing failures never fail
// the request; the write already landed.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, entity, action string, id int64) error
}

// Prefetcher is implemented by price oracles that can warm their cache for a
// batch of symbols ahead of a valuation.
type Prefetcher interface {
	Prefetch(ctx context.Context, symbols []string)
}

type LedgerService struct {
	data   datasource.DataSource
	oracle core.PriceOracle
	events EventPublisher
}

func NewLedgerService(data datasource.DataSource, oracle core.PriceOracle, events EventPublisher) *LedgerService {
	return &LedgerService{data: data, oracle: oracle, events: events}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	id, err := s.data.AddTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, "transaction", "created", id)
	return id, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.data.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, "transaction", "updated", tx.ID)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.data.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, "transaction", "deleted", id)
	return nil
}

func (s *LedgerService) Transactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.data.ListTransactions(ctx, limit)
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	id, err := s.data.AddAccount(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("save account: %w", err)
	}
	s.publish(ctx, "account", "created", id)
	return id, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.data.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.publish(ctx, "account", "deleted", id)
	return nil
}

func (s *LedgerService) Accounts(ctx context.Context) ([]core.Account, error) {
	return s.data.ListAccounts(ctx)
}

// AccountBalances returns every account with its balance as of the cutoff.
func (s *LedgerService) AccountBalances(ctx context.Context, asOf core.Date) ([]core.AccountBalance, error) {
	accounts, err := s.data.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.Balances(accounts, txs, asOf), nil
}

type CardTotal struct {
	Account core.Account
	Spent   core.Money
}

// CardTotals sums expenses charged to each credit-card account.
func (s *LedgerService) CardTotals(ctx context.Context) ([]CardTotal, error) {
	accounts, err := s.data.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	spent := make(map[int64]core.Money)
	for _, tx := range txs {
		if tx.Kind == core.Expense && tx.AccountID != 0 {
			spent[tx.AccountID] = spent[tx.AccountID].Add(tx.Amount)
		}
	}

	var out []CardTotal
	for _, a := range accounts {
		if a.Type != core.AccountCreditCard {
			continue
		}
		out = append(out, CardTotal{Account: a, Spent: spent[a.ID]})
	}
	return out, nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.data.AddCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("save category: %w", err)
	}
	s.publish(ctx, "category", "created", id)
	return id, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.data.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, "category", "deleted", id)
	return nil
}

func (s *LedgerService) Categories(ctx context.Context, filter datasource.CategoryFilter) ([]core.Category, error) {
	return s.data.ListCategories(ctx, filter)
}

func (s *LedgerService) CreateStockLot(ctx context.Context, l core.StockLot) (int64, error) {
	l.Symbol = strings.ToUpper(strings.TrimSpace(l.Symbol))
	if err := l.Validate(); err != nil {
		return 0, err
	}
	id, err := s.data.AddStockLot(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("save stock lot: %w", err)
	}
	s.publish(ctx, "stock_lot", "created", id)
	return id, nil
}

func (s *LedgerService) SetBudget(ctx context.Context, month string, amount core.Money) error {
	if err := (core.Budget{Month: month, Amount: amount}).Validate(); err != nil {
		return err
	}
	if err := s.data.SetBudget(ctx, month, amount); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, "budget", "updated", 0)
	return nil
}

// BudgetStatus is the spending picture for one month.
type BudgetStatus struct {
	Month     string
	Budget    core.Money
	Spent     core.Money
	Remaining core.Money
}

func (s *LedgerService) Budget(ctx context.Context, month string) (BudgetStatus, error) {
	if err := core.ValidateMonthKey(month); err != nil {
		return BudgetStatus{}, err
	}
	budget, err := s.data.GetBudget(ctx, month)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("load budget: %w", err)
	}
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("load transactions: %w", err)
	}
	var spent core.Money
	for _, tx := range txs {
		if tx.Kind == core.Expense && tx.Date.MonthKey() == month {
			spent = spent.Add(tx.Amount)
		}
	}
	return BudgetStatus{
		Month:     month,
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
	}, nil
}

// Dashboard is the aggregate view served on the landing page.
type Dashboard struct {
	AsOf          core.Date
	TotalAssets   core.Money
	AccountsTotal core.Money
	StocksAtCost  core.Money
	Balances      []core.AccountBalance
	Breakdown     []core.ClassAmount
	MonthIncome   core.Money
	MonthExpense  core.Money
	ByCategory    []core.CategoryAmount
	Budget        BudgetStatus
	Recent        []core.Transaction
}

// Dashboard composes balances, the asset breakdown, current-month totals and
// budget, and the most recent entries. Held stocks enter at cost so the view
// never depends on quote availability.
func (s *LedgerService) Dashboard(ctx context.Context, asOf core.Date) (Dashboard, error) {
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load transactions: %w", err)
	}
	accounts, err := s.data.ListAccounts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load accounts: %w", err)
	}
	lots, err := s.data.ListHeldStockLots(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load stock lots: %w", err)
	}

	balances := core.Balances(accounts, txs, asOf)
	var accountsTotal core.Money
	for _, b := range balances {
		accountsTotal = accountsTotal.Add(b.Balance)
	}
	stocksAtCost := costBasisMoney(lots)

	month := asOf.MonthKey()
	var monthIncome, monthExpense core.Money
	for _, tx := range txs {
		if tx.Date.MonthKey() != month {
			continue
		}
		if tx.Kind == core.Income {
			monthIncome = monthIncome.Add(tx.Amount)
		} else {
			monthExpense = monthExpense.Add(tx.Amount)
		}
	}

	budget, err := s.Budget(ctx, month)
	if err != nil {
		return Dashboard{}, err
	}

	recent := txs
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return Dashboard{
		AsOf:          asOf,
		TotalAssets:   accountsTotal.Add(stocksAtCost),
		AccountsTotal: accountsTotal,
		StocksAtCost:  stocksAtCost,
		Balances:      balances,
		Breakdown:     core.AssetBreakdown(balances, lots),
		MonthIncome:   monthIncome,
		MonthExpense:  monthExpense,
		ByCategory:    core.CategoryBreakdown(txs, core.Expense, month),
		Budget:        budget,
		Recent:        recent,
	}, nil
}

func (s *LedgerService) MonthlyReport(ctx context.Context) ([]core.MonthSummary, error) {
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.MonthlySummary(txs), nil
}

func (s *LedgerService) CategoryReport(ctx context.Context, kind core.TransactionKind, month string) ([]core.CategoryAmount, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	if month != "" {
		if err := core.ValidateMonthKey(month); err != nil {
			return nil, err
		}
	}
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.CategoryBreakdown(txs, kind, month), nil
}

func (s *LedgerService) AssetTrend(ctx context.Context, asOf core.Date) ([]core.AssetPoint, error) {
	txs, err := s.data.ListTransactions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	accounts, err := s.data.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	lots, err := s.data.ListHeldStockLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock lots: %w", err)
	}
	return core.MonthlyAssetTrend(txs, accounts, lots, asOf), nil
}

// Portfolio values every held lot at current market price. The quote cache
// is warmed in one parallel pass first when the oracle supports it.
func (s *LedgerService) Portfolio(ctx context.Context) (core.PortfolioValuation, error) {
	lots, err := s.data.ListHeldStockLots(ctx)
	if err != nil {
		return core.PortfolioValuation{}, fmt.Errorf("load stock lots: %w", err)
	}
	if p, ok := s.oracle.(Prefetcher); ok {
		symbols := make([]string, 0, len(lots))
		for _, l := range lots {
			symbols = append(symbols, l.Symbol)
		}
		p.Prefetch(ctx, symbols)
	}
	return core.ValuePortfolio(ctx, lots, s.oracle), nil
}

func (s *LedgerService) publish(ctx context.Context, entity, action string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, entity, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

func costBasisMoney(lots []core.StockLot) core.Money {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.CostBasis())
	}
	return core.Money{Cents: total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()}
}
