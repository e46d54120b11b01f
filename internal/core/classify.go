package core

import "strings"

// AssetClass is the semantic bucket used to group accounts and holdings
// for proportion charts.
type AssetClass string

const (
	AssetLiquid          AssetClass = "Liquid"
	AssetFixedDeposit    AssetClass = "FixedDeposit"
	AssetForeignCurrency AssetClass = "ForeignCurrency"
	AssetDomesticEquity  AssetClass = "DomesticEquity"
	AssetForeignEquity   AssetClass = "ForeignEquity"
)

// accountRule maps a predicate to an asset class. Rules are evaluated
// top to bottom and the first match wins, which is the tie-break for
// names matching more than one marker.
type accountRule struct {
	matches func(name string, typ AccountType) bool
	class   AssetClass
}

var foreignCurrencyMarkers = []string{"usd", "美金", "美元", "dollar"}

var accountRules = []accountRule{
	{
		matches: func(name string, _ AccountType) bool {
			for _, marker := range foreignCurrencyMarkers {
				if strings.Contains(name, marker) {
					return true
				}
			}
			return false
		},
		class: AssetForeignCurrency,
	},
	{
		matches: func(name string, typ AccountType) bool {
			return strings.Contains(name, "定存") || typ == AccountFixedDeposit
		},
		class: AssetFixedDeposit,
	},
	{
		matches: func(_ string, typ AccountType) bool { return typ == AccountBank },
		class:   AssetLiquid,
	},
}

// ClassifyAccount buckets an account into an asset class. Matching is
// case-insensitive on the account name; unmatched accounts are Liquid.
func ClassifyAccount(account Account) AssetClass {
	name := strings.ToLower(account.Name)
	for _, rule := range accountRules {
		if rule.matches(name, account.Type) {
			return rule.class
		}
	}
	return AssetLiquid
}

// domesticSuffixes are the exchange suffixes of the home market.
var domesticSuffixes = []string{".tw", ".two"}

// ClassifyStock buckets a stock symbol into DomesticEquity or ForeignEquity
// by its exchange suffix, case-insensitively.
func ClassifyStock(symbol string) AssetClass {
	s := strings.ToLower(strings.TrimSpace(symbol))
	for _, suffix := range domesticSuffixes {
		if strings.HasSuffix(s, suffix) {
			return AssetDomesticEquity
		}
	}
	return AssetForeignEquity
}
