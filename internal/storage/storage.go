// Package storage is the SQLite-backed data source. The schema is managed
// by embedded migrations and applied on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	q := `SELECT id, tx_date, kind, category, description, amount_cents, account_id
		FROM transactions ORDER BY tx_date DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx  core.Transaction
			day string
		)
		if err := rows.Scan(&tx.ID, &day, &tx.Kind, &tx.Category, &tx.Description, &tx.Amount.Cents, &tx.AccountID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = core.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (tx_date, kind, category, description, amount_cents, account_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Kind, tx.Category, tx.Description, tx.Amount.Cents, tx.AccountID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", tx.Kind,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET tx_date = ?, kind = ?, category = ?, description = ?, amount_cents = ?, account_id = ?
		WHERE id = ?`,
		tx.Date.String(), tx.Kind, tx.Category, tx.Description, tx.Amount.Cents, tx.AccountID, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return mustAffect(res, tx.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return mustAffect(res, id)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, initial_balance_cents FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.InitialBalance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, initial_balance_cents) VALUES (?, ?, ?)`,
		a.Name, a.Type, a.InitialBalance.Cents)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, datasource.ErrDuplicate
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "id", id, "name", a.Name, "type", a.Type)
	return id, nil
}

// DeleteAccount removes the account only. Transactions keep their account_id
// and show up as unlinked in aggregations.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return mustAffect(res, id)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, filter datasource.CategoryFilter) ([]core.Category, error) {
	q := `SELECT id, name, applies_to FROM categories`
	args := []any{}
	switch filter {
	case datasource.FilterOnlyExpense:
		q += ` WHERE applies_to IN (?, ?)`
		args = append(args, core.CategoryExpense, core.CategoryBoth)
	case datasource.FilterOnlyIncome:
		q += ` WHERE applies_to IN (?, ?)`
		args = append(args, core.CategoryIncome, core.CategoryBoth)
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.AppliesTo); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, applies_to) VALUES (?, ?)`, c.Name, c.AppliesTo)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, datasource.ErrDuplicate
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

// DeleteCategory refuses to remove a category any transaction still uses.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return datasource.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}

	var refs int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category = ?`, name).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return datasource.ErrInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return mustAffect(res, id)
}

func (r *SQLiteRepository) ListHeldStockLots(ctx context.Context) ([]core.StockLot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, symbol, buy_date, buy_price, quantity, broker_fee, transaction_fee, status
		FROM stock_lots WHERE status = ? ORDER BY buy_date, id`, core.LotHeld)
	if err != nil {
		return nil, fmt.Errorf("list stock lots: %w", err)
	}
	defer rows.Close()

	var out []core.StockLot
	for rows.Next() {
		var (
			l                           core.StockLot
			day, price, qty, bFee, tFee string
		)
		if err := rows.Scan(&l.ID, &l.Symbol, &day, &price, &qty, &bFee, &tFee, &l.Status); err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		if l.BuyDate, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("lot %d: %w", l.ID, err)
		}
		if l.BuyPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("lot %d buy price: %w", l.ID, err)
		}
		if l.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("lot %d quantity: %w", l.ID, err)
		}
		if l.BrokerFee, err = decimal.NewFromString(bFee); err != nil {
			return nil, fmt.Errorf("lot %d broker fee: %w", l.ID, err)
		}
		if l.TransactionFee, err = decimal.NewFromString(tFee); err != nil {
			return nil, fmt.Errorf("lot %d transaction fee: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddStockLot(ctx context.Context, l core.StockLot) (int64, error) {
	if l.Status == "" {
		l.Status = core.LotHeld
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_lots (symbol, buy_date, buy_price, quantity, broker_fee, transaction_fee, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Symbol, l.BuyDate.String(), l.BuyPrice.String(), l.Quantity.String(),
		l.BrokerFee.String(), l.TransactionFee.String(), l.Status)
	if err != nil {
		return 0, fmt.Errorf("insert stock lot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stock lot id: %w", err)
	}
	slog.InfoContext(ctx, "Stock lot saved", "id", id, "symbol", l.Symbol, "quantity", l.Quantity.String())
	return id, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, month string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT amount_cents FROM budgets WHERE month = ?`, month).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get budget: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, month string, amount core.Money) error {
	if err := core.ValidateMonthKey(month); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (month, amount_cents) VALUES (?, ?)
		ON CONFLICT(month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		month, amount.Cents)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func mustAffect(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, datasource.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
