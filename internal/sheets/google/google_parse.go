package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
)

// parseTransactions converts a values matrix (as returned by the Sheets API)
// into transactions, newest first. Expected headers: ID, Date, Kind,
// Category, Description, Amount, Account. Rows with a blank date are skipped,
// a malformed row fails the whole load so a broken sheet is caught early.
func parseTransactions(values [][]interface{}) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "ID")
	colDate := indexOf(headers, "Date")
	colKind := indexOf(headers, "Kind")
	colCategory := indexOf(headers, "Category")
	colDescription := indexOf(headers, "Description")
	colAmount := indexOf(headers, "Amount")
	colAccount := indexOf(headers, "Account")
	if colDate == -1 || colKind == -1 || colCategory == -1 || colAmount == -1 {
		return nil, fmt.Errorf("unexpected transactions header: %v", headers)
	}

	var out []core.Transaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if strings.TrimSpace(safeGet(row, colDate)) == "" {
			continue
		}
		tx := core.Transaction{ID: int64(i)}
		if colID != -1 {
			if id, err := strconv.ParseInt(strings.TrimSpace(safeGet(row, colID)), 10, 64); err == nil {
				tx.ID = id
			}
		}
		date, err := core.ParseDate(safeGet(row, colDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		tx.Date = date
		tx.Kind = parseKind(safeGet(row, colKind))
		if !tx.Kind.Valid() {
			return nil, fmt.Errorf("row %d: unknown kind %q", i+1, safeGet(row, colKind))
		}
		tx.Category = strings.TrimSpace(safeGet(row, colCategory))
		if colDescription != -1 {
			tx.Description = strings.TrimSpace(safeGet(row, colDescription))
		}
		cents, err := core.ParseDecimalToCents(safeGet(row, colAmount))
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+1, err)
		}
		tx.Amount = core.Money{Cents: cents}
		if colAccount != -1 {
			if id, err := strconv.ParseInt(strings.TrimSpace(safeGet(row, colAccount)), 10, 64); err == nil {
				tx.AccountID = id
			}
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Expected headers: ID, Name, Type, Initial Balance.
func parseAccounts(values [][]interface{}) ([]core.Account, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "ID")
	colName := indexOf(headers, "Name")
	colType := indexOf(headers, "Type")
	colBalance := indexOf(headers, "Initial Balance")
	if colName == -1 || colType == -1 {
		return nil, fmt.Errorf("unexpected accounts header: %v", headers)
	}

	var out []core.Account
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := strings.TrimSpace(safeGet(row, colName))
		if name == "" {
			continue
		}
		a := core.Account{ID: int64(i), Name: name, Type: core.AccountType(strings.TrimSpace(safeGet(row, colType)))}
		if colID != -1 {
			if id, err := strconv.ParseInt(strings.TrimSpace(safeGet(row, colID)), 10, 64); err == nil {
				a.ID = id
			}
		}
		if !a.Type.Valid() {
			return nil, fmt.Errorf("row %d: unknown account type %q", i+1, safeGet(row, colType))
		}
		if colBalance != -1 && strings.TrimSpace(safeGet(row, colBalance)) != "" {
			cents, err := core.ParseDecimalToCents(safeGet(row, colBalance))
			if err != nil {
				return nil, fmt.Errorf("row %d initial balance: %w", i+1, err)
			}
			a.InitialBalance = core.Money{Cents: cents}
		}
		out = append(out, a)
	}
	return out, nil
}

// Expected headers: ID, Name, Applies To.
func parseCategories(values [][]interface{}) ([]core.Category, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "ID")
	colName := indexOf(headers, "Name")
	colApplies := indexOf(headers, "Applies To")
	if colName == -1 {
		return nil, fmt.Errorf("unexpected categories header: %v", headers)
	}

	var out []core.Category
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := strings.TrimSpace(safeGet(row, colName))
		if name == "" {
			continue
		}
		c := core.Category{ID: int64(i), Name: name, AppliesTo: core.CategoryExpense}
		if colID != -1 {
			if id, err := strconv.ParseInt(strings.TrimSpace(safeGet(row, colID)), 10, 64); err == nil {
				c.ID = id
			}
		}
		if colApplies != -1 && strings.TrimSpace(safeGet(row, colApplies)) != "" {
			c.AppliesTo = parseCategoryType(safeGet(row, colApplies))
			if !c.AppliesTo.Valid() {
				return nil, fmt.Errorf("row %d: unknown category type %q", i+1, safeGet(row, colApplies))
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Expected headers: Symbol, Buy Date, Buy Price, Quantity, Broker Fee,
// Transaction Fee, Status. Sold lots are filtered out here so the client
// only ever surfaces held positions.
func parseStockLots(values [][]interface{}) ([]core.StockLot, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colSymbol := indexOf(headers, "Symbol")
	colDate := indexOf(headers, "Buy Date")
	colPrice := indexOf(headers, "Buy Price")
	colQty := indexOf(headers, "Quantity")
	colBrokerFee := indexOf(headers, "Broker Fee")
	colTxFee := indexOf(headers, "Transaction Fee")
	colStatus := indexOf(headers, "Status")
	if colSymbol == -1 || colDate == -1 || colPrice == -1 || colQty == -1 {
		return nil, fmt.Errorf("unexpected stocks header: %v", headers)
	}

	var out []core.StockLot
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		symbol := strings.ToUpper(strings.TrimSpace(safeGet(row, colSymbol)))
		if symbol == "" {
			continue
		}
		if colStatus != -1 {
			status := strings.TrimSpace(safeGet(row, colStatus))
			if status != "" && !strings.EqualFold(status, string(core.LotHeld)) {
				continue
			}
		}
		l := core.StockLot{ID: int64(i), Symbol: symbol, Status: core.LotHeld}
		date, err := core.ParseDate(safeGet(row, colDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		l.BuyDate = date
		if l.BuyPrice, err = parseCell(safeGet(row, colPrice)); err != nil {
			return nil, fmt.Errorf("row %d buy price: %w", i+1, err)
		}
		if l.Quantity, err = parseCell(safeGet(row, colQty)); err != nil {
			return nil, fmt.Errorf("row %d quantity: %w", i+1, err)
		}
		if colBrokerFee != -1 {
			if l.BrokerFee, err = parseOptionalCell(safeGet(row, colBrokerFee)); err != nil {
				return nil, fmt.Errorf("row %d broker fee: %w", i+1, err)
			}
		}
		if colTxFee != -1 {
			if l.TransactionFee, err = parseOptionalCell(safeGet(row, colTxFee)); err != nil {
				return nil, fmt.Errorf("row %d transaction fee: %w", i+1, err)
			}
		}
		out = append(out, l)
	}
	return out, nil
}

// Expected headers: Month, Amount. Month cells use the YYYY-MM key format.
func parseBudgets(values [][]interface{}) (map[string]core.Money, error) {
	out := map[string]core.Money{}
	if len(values) == 0 {
		return out, nil
	}
	headers := toStrings(values[0])
	colMonth := indexOf(headers, "Month")
	colAmount := indexOf(headers, "Amount")
	if colMonth == -1 || colAmount == -1 {
		return nil, fmt.Errorf("unexpected budgets header: %v", headers)
	}
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		month := strings.TrimSpace(safeGet(row, colMonth))
		if month == "" {
			continue
		}
		if err := core.ValidateMonthKey(month); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		cents, err := core.ParseDecimalToCents(safeGet(row, colAmount))
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+1, err)
		}
		out[month] = core.Money{Cents: cents}
	}
	return out, nil
}

func filterCategories(cats []core.Category, filter datasource.CategoryFilter) []core.Category {
	if filter == datasource.FilterAll {
		return cats
	}
	want := core.CategoryExpense
	if filter == datasource.FilterOnlyIncome {
		want = core.CategoryIncome
	}
	var out []core.Category
	for _, c := range cats {
		if c.AppliesTo == want || c.AppliesTo == core.CategoryBoth {
			out = append(out, c)
		}
	}
	return out
}

func parseCategoryType(s string) core.CategoryType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return core.CategoryExpense
	case "income":
		return core.CategoryIncome
	case "both":
		return core.CategoryBoth
	}
	return core.CategoryType(s)
}

func parseKind(s string) core.TransactionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return core.Income
	case "expense":
		return core.Expense
	}
	return core.TransactionKind(s)
}

func parseCell(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

func parseOptionalCell(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return parseCell(s)
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
