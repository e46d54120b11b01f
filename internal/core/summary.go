package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthSummary aggregates one calendar month of transactions.
type MonthSummary struct {
	Month   string // "YYYY-MM"
	Income  Money
	Expense Money
	Net     Money
}

// MonthlySummary partitions transactions by calendar month and totals income,
// expense and net per month. The result is ordered ascending by month, one
// entry per month that actually occurs in the data; consumers reverse it for
// newest-first display.
func MonthlySummary(transactions []Transaction) []MonthSummary {
	byMonth := make(map[string]*MonthSummary)
	for _, tx := range transactions {
		key := tx.Date.MonthKey()
		s, ok := byMonth[key]
		if !ok {
			s = &MonthSummary{Month: key}
			byMonth[key] = s
		}
		switch tx.Kind {
		case Income:
			s.Income = s.Income.Add(tx.Amount)
		case Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	out := make([]MonthSummary, 0, len(byMonth))
	for _, s := range byMonth {
		s.Net = s.Income.Sub(s.Expense)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// AssetPoint is one month of the total-asset time series.
type AssetPoint struct {
	Month       string // "YYYY-MM"
	TotalAssets decimal.Decimal
}

// MonthlyAssetTrend computes total assets at the end of every month that has
// transactions, plus the asOf month if absent. Total assets at a month end is
// the sum of all account balances as of that day plus the cost basis of every
// lot bought on or before it. Months with zero transactions that are not the
// asOf month are omitted, so the series is not guaranteed contiguous.
//
// Each month recomputes every account and lot from scratch; fine at personal
// data volume.
func MonthlyAssetTrend(transactions []Transaction, accounts []Account, lots []StockLot, asOf Date) []AssetPoint {
	seen := make(map[string]bool)
	monthEnds := make(map[string]Date)
	for _, tx := range transactions {
		key := tx.Date.MonthKey()
		if !seen[key] {
			seen[key] = true
			monthEnds[key] = tx.Date.MonthEnd()
		}
	}
	if key := asOf.MonthKey(); !seen[key] {
		seen[key] = true
		monthEnds[key] = asOf.MonthEnd()
	}
	months := make([]string, 0, len(seen))
	for key := range seen {
		months = append(months, key)
	}
	sort.Strings(months)

	out := make([]AssetPoint, 0, len(months))
	for _, month := range months {
		end := monthEnds[month]
		total := decimal.Zero
		for _, ab := range Balances(accounts, transactions, end) {
			total = total.Add(ab.Balance.Decimal())
		}
		for _, lot := range lots {
			if lot.Status != LotHeld {
				continue
			}
			if lot.BuyDate.After(end) {
				continue
			}
			total = total.Add(lot.CostBasis())
		}
		out = append(out, AssetPoint{Month: month, TotalAssets: total})
	}
	return out
}

// ClassAmount is an amount attributed to one asset class.
type ClassAmount struct {
	Class  AssetClass
	Amount decimal.Decimal
}

// assetClassOrder fixes the display order of the breakdown.
var assetClassOrder = []AssetClass{
	AssetLiquid,
	AssetFixedDeposit,
	AssetForeignCurrency,
	AssetDomesticEquity,
	AssetForeignEquity,
}

// AssetBreakdown buckets current account balances and held-lot cost bases by
// asset class. Classes with a non-positive total are dropped, matching the
// proportion-chart semantics.
func AssetBreakdown(balances []AccountBalance, lots []StockLot) []ClassAmount {
	totals := make(map[AssetClass]decimal.Decimal)
	for _, ab := range balances {
		class := ClassifyAccount(ab.Account)
		totals[class] = totals[class].Add(ab.Balance.Decimal())
	}
	for _, lot := range lots {
		if lot.Status != LotHeld {
			continue
		}
		class := ClassifyStock(lot.Symbol)
		totals[class] = totals[class].Add(lot.CostBasis())
	}
	out := make([]ClassAmount, 0, len(totals))
	for _, class := range assetClassOrder {
		if amount, ok := totals[class]; ok && amount.IsPositive() {
			out = append(out, ClassAmount{Class: class, Amount: amount})
		}
	}
	return out
}

// CategoryAmount is an amount aggregated under one category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// CategoryBreakdown totals transactions of the given kind in the given month
// ("YYYY-MM") by category, largest first. An empty month matches all months.
func CategoryBreakdown(transactions []Transaction, kind TransactionKind, month string) []CategoryAmount {
	totals := make(map[string]int64)
	order := make([]string, 0)
	for _, tx := range transactions {
		if tx.Kind != kind {
			continue
		}
		if month != "" && tx.Date.MonthKey() != month {
			continue
		}
		if _, ok := totals[tx.Category]; !ok {
			order = append(order, tx.Category)
		}
		totals[tx.Category] += tx.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: totals[name]}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	return out
}

// Totals sums income and expense over the whole transaction set, counting
// orphaned transactions too.
func Totals(transactions []Transaction) (income, expense Money) {
	for _, tx := range transactions {
		switch tx.Kind {
		case Income:
			income = income.Add(tx.Amount)
		case Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}
