package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle resolves a stock symbol to its current market price. The
// boolean is false when no price is available (unknown symbol, provider
// failure); implementations never report an error for that case.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// LotValuation is the valuation of a single lot. The pointer fields are nil
// when the symbol has no available price; callers must render them as "N/A"
// rather than zero.
type LotValuation struct {
	Lot          StockLot
	TotalCost    decimal.Decimal
	AvgCost      decimal.Decimal
	CurrentPrice *decimal.Decimal
	MarketValue  *decimal.Decimal
	ProfitLoss   *decimal.Decimal
	ROI          *decimal.Decimal // percent
}

// PortfolioValuation aggregates all lots. Invested covers every lot;
// MarketValue, ProfitLoss and ROI cover only lots with an available price,
// so unpriced lots are excluded from those rather than counted as zero.
type PortfolioValuation struct {
	Lots        []LotValuation
	Invested    decimal.Decimal
	MarketValue decimal.Decimal
	ProfitLoss  decimal.Decimal
	ROI         decimal.Decimal // percent, 0 when nothing is priced
}

var hundred = decimal.NewFromInt(100)

// ValuePortfolio computes cost basis, market value, P&L and ROI per lot and
// in aggregate. The oracle is queried once per distinct symbol, and a failed
// lookup only marks that symbol's lots unavailable.
func ValuePortfolio(ctx context.Context, lots []StockLot, oracle PriceOracle) PortfolioValuation {
	prices := make(map[string]decimal.Decimal)
	asked := make(map[string]bool)
	if oracle != nil {
		for _, lot := range lots {
			if lot.Status != LotHeld {
				continue
			}
			if asked[lot.Symbol] {
				continue
			}
			asked[lot.Symbol] = true
			if price, ok := oracle.GetPrice(ctx, lot.Symbol); ok {
				prices[lot.Symbol] = price
			}
		}
	}
	return ValuePortfolioWithPrices(lots, prices)
}

// ValuePortfolioWithPrices is the pure half of the valuation: prices have
// already been resolved (symbols absent from the map are unpriced). A zero
// price counts as unpriced, matching oracle-miss semantics.
func ValuePortfolioWithPrices(lots []StockLot, prices map[string]decimal.Decimal) PortfolioValuation {
	v := PortfolioValuation{Lots: make([]LotValuation, 0, len(lots))}
	pricedInvested := decimal.Zero
	for _, lot := range lots {
		if lot.Status != LotHeld {
			continue
		}
		lv := LotValuation{Lot: lot, TotalCost: lot.CostBasis()}
		// External sources are not validated, so guard the division even
		// though valid lots always have positive quantity.
		if lot.Quantity.IsPositive() {
			lv.AvgCost = lv.TotalCost.Div(lot.Quantity)
		}
		v.Invested = v.Invested.Add(lv.TotalCost)

		if price, ok := prices[lot.Symbol]; ok && price.IsPositive() {
			market := price.Mul(lot.Quantity)
			pl := market.Sub(lv.TotalCost)
			lv.CurrentPrice = &price
			lv.MarketValue = &market
			lv.ProfitLoss = &pl
			if lv.TotalCost.IsPositive() {
				roi := pl.Div(lv.TotalCost).Mul(hundred)
				lv.ROI = &roi
			}
			v.MarketValue = v.MarketValue.Add(market)
			pricedInvested = pricedInvested.Add(lv.TotalCost)
		}
		v.Lots = append(v.Lots, lv)
	}
	v.ProfitLoss = v.MarketValue.Sub(pricedInvested)
	if pricedInvested.IsPositive() {
		v.ROI = v.ProfitLoss.Div(pricedInvested).Mul(hundred)
	}
	return v
}
