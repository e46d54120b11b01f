package core

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

// countingOracle records lookups so dedup-by-symbol can be asserted.
type countingOracle struct {
	prices map[string]decimal.Decimal
	calls  map[string]int
}

func (o *countingOracle) GetPrice(_ context.Context, symbol string) (decimal.Decimal, bool) {
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[symbol]++
	p, ok := o.prices[symbol]
	return p, ok
}

func lot(symbol string, price, qty, brokerFee, txFee int64) StockLot {
	return StockLot{
		Symbol:         symbol,
		BuyDate:        NewDate(2024, 1, 2),
		BuyPrice:       decimal.NewFromInt(price),
		Quantity:       decimal.NewFromInt(qty),
		BrokerFee:      decimal.NewFromInt(brokerFee),
		TransactionFee: decimal.NewFromInt(txFee),
		Status:         LotHeld,
	}
}

func TestValuePortfolioScenario(t *testing.T) {
	oracle := &countingOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(180),
	}}
	lots := []StockLot{lot("AAPL", 150, 10, 5, 2)}

	v := ValuePortfolio(context.Background(), lots, oracle)
	if len(v.Lots) != 1 {
		t.Fatalf("got %d lots, want 1", len(v.Lots))
	}
	lv := v.Lots[0]
	if !lv.TotalCost.Equal(decimal.NewFromInt(1507)) {
		t.Errorf("total cost = %s, want 1507", lv.TotalCost)
	}
	if !lv.AvgCost.Equal(decimal.RequireFromString("150.7")) {
		t.Errorf("avg cost = %s, want 150.7", lv.AvgCost)
	}
	if lv.MarketValue == nil || !lv.MarketValue.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("market value = %v, want 1800", lv.MarketValue)
	}
	if lv.ProfitLoss == nil || !lv.ProfitLoss.Equal(decimal.NewFromInt(293)) {
		t.Errorf("profit/loss = %v, want 293", lv.ProfitLoss)
	}
	if lv.ROI == nil {
		t.Fatal("roi unavailable")
	}
	if roi, _ := lv.ROI.Round(2).Float64(); roi != 19.44 {
		t.Errorf("roi = %s, want about 19.44", lv.ROI)
	}
}

func TestValuePortfolioPartialSums(t *testing.T) {
	oracle := &countingOracle{prices: map[string]decimal.Decimal{
		"PRICED": decimal.NewFromInt(100),
	}}
	lots := []StockLot{
		lot("PRICED", 50, 10, 0, 0),   // cost 500, market 1000
		lot("UNPRICED", 70, 10, 0, 0), // cost 700, no price
	}

	v := ValuePortfolio(context.Background(), lots, oracle)
	if !v.Invested.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("invested = %s, want 1200 (both lots)", v.Invested)
	}
	if !v.MarketValue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("market value = %s, want 1000 (unpriced lot excluded, not zero)", v.MarketValue)
	}
	if !v.ProfitLoss.Equal(decimal.NewFromInt(500)) {
		t.Errorf("profit/loss = %s, want 500 against priced cost only", v.ProfitLoss)
	}
	if !v.ROI.Equal(decimal.NewFromInt(100)) {
		t.Errorf("roi = %s, want 100", v.ROI)
	}

	unpriced := v.Lots[1]
	if unpriced.MarketValue != nil || unpriced.ProfitLoss != nil || unpriced.ROI != nil {
		t.Error("unpriced lot must report unavailable market fields, not numbers")
	}
}

func TestValuePortfolioROIZeroGuard(t *testing.T) {
	if v := ValuePortfolio(context.Background(), nil, nil); !v.ROI.IsZero() {
		t.Errorf("empty portfolio roi = %s, want 0", v.ROI)
	}
	lots := []StockLot{lot("X", 10, 1, 0, 0)}
	v := ValuePortfolio(context.Background(), lots, &countingOracle{})
	if !v.ROI.IsZero() || !v.MarketValue.IsZero() {
		t.Errorf("all-unpriced portfolio roi = %s market = %s, want 0/0", v.ROI, v.MarketValue)
	}
}

func TestValuePortfolioDedupesSymbols(t *testing.T) {
	oracle := &countingOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(180),
	}}
	lots := []StockLot{
		lot("AAPL", 150, 10, 0, 0),
		lot("AAPL", 160, 5, 0, 0),
		lot("MISS", 10, 1, 0, 0),
		lot("MISS", 11, 1, 0, 0),
	}
	ValuePortfolio(context.Background(), lots, oracle)
	if oracle.calls["AAPL"] != 1 {
		t.Errorf("AAPL queried %d times, want 1", oracle.calls["AAPL"])
	}
	if oracle.calls["MISS"] != 1 {
		t.Errorf("MISS queried %d times, want 1", oracle.calls["MISS"])
	}
}

func TestValuePortfolioSkipsSoldAndGuardsQuantity(t *testing.T) {
	sold := lot("AAPL", 100, 1, 0, 0)
	sold.Status = LotSold
	broken := lot("BAD", 100, 1, 0, 0)
	broken.Quantity = decimal.Zero // invalid data from an external source

	v := ValuePortfolioWithPrices([]StockLot{sold, broken}, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(200),
		"BAD":  decimal.NewFromInt(200),
	})
	if len(v.Lots) != 1 {
		t.Fatalf("got %d lots, want 1 (sold excluded)", len(v.Lots))
	}
	if !v.Lots[0].AvgCost.IsZero() {
		t.Errorf("avg cost with zero quantity = %s, want 0 (guarded)", v.Lots[0].AvgCost)
	}
}
