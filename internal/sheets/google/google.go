// Package google is the read-only Google Sheets backend. It mirrors the
// ledger layout many people already keep in a spreadsheet: one tab per
// record type, a header row, data from row 2 down. All write operations
// return datasource.ErrReadOnly; edits happen in the spreadsheet itself.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	transactionsSheet string
	accountsSheet     string
	categoriesSheet   string
	stocksSheet       string
	budgetsSheet      string
}

var _ datasource.DataSource = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: GOOGLE_TRANSACTIONS_SHEET (default "Transactions"),
// GOOGLE_ACCOUNTS_SHEET ("Accounts"), GOOGLE_CATEGORIES_SHEET ("Categories"),
// GOOGLE_STOCKS_SHEET ("Stocks"), GOOGLE_BUDGETS_SHEET ("Budgets").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: sheetName("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		accountsSheet:     sheetName("GOOGLE_ACCOUNTS_SHEET", "Accounts"),
		categoriesSheet:   sheetName("GOOGLE_CATEGORIES_SHEET", "Categories"),
		stocksSheet:       sheetName("GOOGLE_STOCKS_SHEET", "Stocks"),
		budgetsSheet:      sheetName("GOOGLE_BUDGETS_SHEET", "Budgets"),
	}, nil
}

func sheetName(envKey, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return fallback
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials. The read-only scope is enough for this backend.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) readRange(ctx context.Context, sheet, cells string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cells)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	values, err := c.readRange(ctx, c.transactionsSheet, "A1:G")
	if err != nil {
		return nil, err
	}
	txs, err := parseTransactions(values)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Transactions loaded from sheet", "count", len(txs))
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	values, err := c.readRange(ctx, c.accountsSheet, "A1:D")
	if err != nil {
		return nil, err
	}
	return parseAccounts(values)
}

func (c *Client) ListCategories(ctx context.Context, filter datasource.CategoryFilter) ([]core.Category, error) {
	values, err := c.readRange(ctx, c.categoriesSheet, "A1:C")
	if err != nil {
		return nil, err
	}
	cats, err := parseCategories(values)
	if err != nil {
		return nil, err
	}
	return filterCategories(cats, filter), nil
}

func (c *Client) ListHeldStockLots(ctx context.Context) ([]core.StockLot, error) {
	values, err := c.readRange(ctx, c.stocksSheet, "A1:H")
	if err != nil {
		return nil, err
	}
	return parseStockLots(values)
}

func (c *Client) GetBudget(ctx context.Context, month string) (core.Money, error) {
	values, err := c.readRange(ctx, c.budgetsSheet, "A1:B")
	if err != nil {
		return core.Money{}, err
	}
	budgets, err := parseBudgets(values)
	if err != nil {
		return core.Money{}, err
	}
	return budgets[month], nil
}

func (c *Client) AddTransaction(ctx context.Context, _ core.Transaction) (int64, error) {
	return 0, datasource.ErrReadOnly
}

func (c *Client) UpdateTransaction(ctx context.Context, _ core.Transaction) error {
	return datasource.ErrReadOnly
}

func (c *Client) DeleteTransaction(ctx context.Context, _ int64) error {
	return datasource.ErrReadOnly
}

func (c *Client) AddAccount(ctx context.Context, _ core.Account) (int64, error) {
	return 0, datasource.ErrReadOnly
}

func (c *Client) DeleteAccount(ctx context.Context, _ int64) error {
	return datasource.ErrReadOnly
}

func (c *Client) AddCategory(ctx context.Context, _ core.Category) (int64, error) {
	return 0, datasource.ErrReadOnly
}

func (c *Client) DeleteCategory(ctx context.Context, _ int64) error {
	return datasource.ErrReadOnly
}

func (c *Client) AddStockLot(ctx context.Context, _ core.StockLot) (int64, error) {
	return 0, datasource.ErrReadOnly
}

func (c *Client) SetBudget(ctx context.Context, _ string, _ core.Money) error {
	return datasource.ErrReadOnly
}
