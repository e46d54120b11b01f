package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"moneytrack/internal/core"
	"moneytrack/internal/datasource"
	"moneytrack/internal/services"
)

// Wire DTOs. Amounts travel as decimal strings ("123.45") so clients never
// deal in cents, and unpriced valuation fields serialize as null.

type transactionDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	AccountID   int64  `json:"account_id,omitempty"`
}

type transactionRequest struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AccountID   int64  `json:"account_id"`
}

func toTransactionDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Kind:        string(tx.Kind),
		Category:    tx.Category,
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		AccountID:   tx.AccountID,
	}
}

func (s *Server) parseTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return core.Transaction{}, false
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return core.Transaction{}, false
	}
	return core.Transaction{
		Date:        date,
		Kind:        core.TransactionKind(sanitizeInput(req.Kind)),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
		AccountID:   req.AccountID,
	}, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	txs, err := s.ledger.Transactions(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]transactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.parseTransaction(w, r)
	if !ok {
		return
	}
	id, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx.ID = id
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, ok := s.parseTransaction(w, r)
	if !ok {
		return
	}
	tx.ID = id
	if err := s.ledger.UpdateTransaction(r.Context(), tx); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type accountDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	Balance        string `json:"balance"`
	AssetClass     string `json:"asset_class"`
}

type accountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledger.AccountBalances(r.Context(), core.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]accountDTO, len(balances))
	for i, b := range balances {
		out[i] = accountDTO{
			ID:             b.Account.ID,
			Name:           b.Account.Name,
			Type:           string(b.Account.Type),
			InitialBalance: b.Account.InitialBalance.String(),
			Balance:        b.Balance.String(),
			AssetClass:     string(core.ClassifyAccount(b.Account)),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.CardTotals(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type card struct {
		AccountID int64  `json:"account_id"`
		Name      string `json:"name"`
		Spent     string `json:"spent"`
	}
	out := make([]card, len(totals))
	for i, t := range totals {
		out[i] = card{AccountID: t.Account.ID, Name: t.Account.Name, Spent: t.Spent.String()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a := core.Account{
		Name: sanitizeInput(req.Name),
		Type: core.AccountType(sanitizeInput(req.Type)),
	}
	if req.InitialBalance != "" {
		cents, err := core.ParseDecimalToCents(req.InitialBalance)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid initial balance")
			return
		}
		a.InitialBalance = core.Money{Cents: cents}
	}
	id, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.ID = id
	writeJSON(w, http.StatusCreated, accountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.String(),
		Balance:        a.InitialBalance.String(),
		AssetClass:     string(core.ClassifyAccount(a)),
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AppliesTo string `json:"applies_to"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var filter datasource.CategoryFilter
	switch r.URL.Query().Get("filter") {
	case "":
		filter = datasource.FilterAll
	case "expense":
		filter = datasource.FilterOnlyExpense
	case "income":
		filter = datasource.FilterOnlyIncome
	default:
		writeError(w, http.StatusBadRequest, "invalid filter, want expense or income")
		return
	}
	cats, err := s.ledger.Categories(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = categoryDTO{ID: c.ID, Name: c.Name, AppliesTo: string(c.AppliesTo)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		AppliesTo string `json:"applies_to"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	c := core.Category{
		Name:      sanitizeInput(req.Name),
		AppliesTo: core.CategoryType(sanitizeInput(req.AppliesTo)),
	}
	id, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryDTO{ID: id, Name: c.Name, AppliesTo: string(c.AppliesTo)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	kind := core.Expense
	switch r.URL.Query().Get("kind") {
	case "", "expense":
	case "income":
		kind = core.Income
	default:
		writeError(w, http.StatusBadRequest, "invalid kind, want expense or income")
		return
	}
	month := r.URL.Query().Get("month")

	rows, err := s.ledger.CategoryReport(r.Context(), kind, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]categoryAmountDTO, len(rows))
	for i, c := range rows {
		out[i] = categoryAmountDTO{Category: c.Name, Amount: c.Amount.String()}
	}
	writeJSON(w, http.StatusOK, out)
}

type dashboardDTO struct {
	AsOf          string              `json:"as_of"`
	TotalAssets   string              `json:"total_assets"`
	AccountsTotal string              `json:"accounts_total"`
	StocksAtCost  string              `json:"stocks_at_cost"`
	Balances      []balanceDTO        `json:"balances"`
	Breakdown     []breakdownSliceDTO `json:"breakdown"`
	MonthIncome   string              `json:"month_income"`
	MonthExpense  string              `json:"month_expense"`
	ByCategory    []categoryAmountDTO `json:"by_category"`
	Budget        budgetDTO           `json:"budget"`
	Recent        []transactionDTO    `json:"recent"`
}

type categoryAmountDTO struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type balanceDTO struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
}

type breakdownSliceDTO struct {
	Class  string `json:"class"`
	Amount string `json:"amount"`
}

type budgetDTO struct {
	Month     string `json:"month"`
	Budget    string `json:"budget"`
	Spent     string `json:"spent"`
	Remaining string `json:"remaining"`
}

func toBudgetDTO(b services.BudgetStatus) budgetDTO {
	return budgetDTO{
		Month:     b.Month,
		Budget:    b.Budget.String(),
		Spent:     b.Spent.String(),
		Remaining: b.Remaining.String(),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of, want YYYY-MM-DD")
			return
		}
		asOf = d
	}
	d, err := s.ledger.Dashboard(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := dashboardDTO{
		AsOf:          d.AsOf.String(),
		TotalAssets:   d.TotalAssets.String(),
		AccountsTotal: d.AccountsTotal.String(),
		StocksAtCost:  d.StocksAtCost.String(),
		MonthIncome:   d.MonthIncome.String(),
		MonthExpense:  d.MonthExpense.String(),
		Budget:        toBudgetDTO(d.Budget),
	}
	for _, b := range d.Balances {
		out.Balances = append(out.Balances, balanceDTO{
			AccountID: b.Account.ID,
			Name:      b.Account.Name,
			Type:      string(b.Account.Type),
			Balance:   b.Balance.String(),
		})
	}
	for _, c := range d.Breakdown {
		out.Breakdown = append(out.Breakdown, breakdownSliceDTO{
			Class:  string(c.Class),
			Amount: c.Amount.StringFixed(2),
		})
	}
	for _, c := range d.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountDTO{
			Category: c.Name,
			Amount:   c.Amount.String(),
		})
	}
	for _, tx := range d.Recent {
		out.Recent = append(out.Recent, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.MonthlyReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type row struct {
		Month   string `json:"month"`
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Net     string `json:"net"`
	}
	// Most recent month first for display; the engine emits ascending order.
	out := make([]row, len(months))
	for i, m := range months {
		out[len(months)-1-i] = row{
			Month:   m.Month,
			Income:  m.Income.String(),
			Expense: m.Expense.String(),
			Net:     m.Net.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAssetTrend(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of, want YYYY-MM-DD")
			return
		}
		asOf = d
	}
	points, err := s.ledger.AssetTrend(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type point struct {
		Month       string `json:"month"`
		TotalAssets string `json:"total_assets"`
	}
	out := make([]point, len(points))
	for i, p := range points {
		out[i] = point{Month: p.Month, TotalAssets: p.TotalAssets.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, out)
}

type lotDTO struct {
	ID             int64   `json:"id"`
	Symbol         string  `json:"symbol"`
	BuyDate        string  `json:"buy_date"`
	BuyPrice       string  `json:"buy_price"`
	Quantity       string  `json:"quantity"`
	TotalCost      string  `json:"total_cost"`
	AvgCost        string  `json:"avg_cost"`
	AssetClass     string  `json:"asset_class"`
	CurrentPrice   *string `json:"current_price"`
	MarketValue    *string `json:"market_value"`
	ProfitLoss     *string `json:"profit_loss"`
	ROIPercent     *string `json:"roi_percent"`
}

type portfolioDTO struct {
	Lots        []lotDTO `json:"lots"`
	Invested    string   `json:"invested"`
	MarketValue string   `json:"market_value"`
	ProfitLoss  string   `json:"profit_loss"`
	ROIPercent  string   `json:"roi_percent"`
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	v, err := s.ledger.Portfolio(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := portfolioDTO{
		Invested:    v.Invested.StringFixed(2),
		MarketValue: v.MarketValue.StringFixed(2),
		ProfitLoss:  v.ProfitLoss.StringFixed(2),
		ROIPercent:  v.ROI.StringFixed(2),
	}
	for _, lv := range v.Lots {
		out.Lots = append(out.Lots, lotDTO{
			ID:           lv.Lot.ID,
			Symbol:       lv.Lot.Symbol,
			BuyDate:      lv.Lot.BuyDate.String(),
			BuyPrice:     lv.Lot.BuyPrice.String(),
			Quantity:     lv.Lot.Quantity.String(),
			TotalCost:    lv.TotalCost.StringFixed(2),
			AvgCost:      lv.AvgCost.StringFixed(4),
			AssetClass:   string(core.ClassifyStock(lv.Lot.Symbol)),
			CurrentPrice: decimalString(lv.CurrentPrice),
			MarketValue:  decimalString(lv.MarketValue),
			ProfitLoss:   decimalString(lv.ProfitLoss),
			ROIPercent:   decimalString(lv.ROI),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateStockLot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol         string `json:"symbol"`
		BuyDate        string `json:"buy_date"`
		BuyPrice       string `json:"buy_price"`
		Quantity       string `json:"quantity"`
		BrokerFee      string `json:"broker_fee"`
		TransactionFee string `json:"transaction_fee"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.BuyDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid buy_date, want YYYY-MM-DD")
		return
	}
	lot := core.StockLot{
		Symbol:  sanitizeInput(req.Symbol),
		BuyDate: date,
		Status:  core.LotHeld,
	}
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"buy_price", req.BuyPrice, &lot.BuyPrice},
		{"quantity", req.Quantity, &lot.Quantity},
		{"broker_fee", req.BrokerFee, &lot.BrokerFee},
		{"transaction_fee", req.TransactionFee, &lot.TransactionFee},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid "+f.name)
			return
		}
		*f.dst = d
	}

	id, err := s.ledger.CreateStockLot(r.Context(), lot)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = core.Today().MonthKey()
	}
	status, err := s.ledger.Budget(r.Context(), month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(status))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month  string `json:"month"`
		Amount string `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	if err := s.ledger.SetBudget(r.Context(), req.Month, core.Money{Cents: cents}); err != nil {
		writeServiceError(w, r, err)
		return
	}
	status, err := s.ledger.Budget(r.Context(), req.Month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(status))
}
