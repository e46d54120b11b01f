package core

// Balance computes an account's running balance as of the cutoff date,
// inclusive. Transactions of other accounts (or with a dangling account
// reference) and transactions dated after the cutoff do not contribute.
// With no matching transactions the result is the initial balance.
func Balance(account Account, transactions []Transaction, cutoff Date) Money {
	balance := account.InitialBalance
	for _, tx := range transactions {
		if tx.AccountID != account.ID {
			continue
		}
		if tx.Date.After(cutoff) {
			continue
		}
		balance = balance.Add(tx.Signed())
	}
	return balance
}

// AccountBalance pairs an account with its computed balance.
type AccountBalance struct {
	Account Account
	Balance Money
}

// Balances computes every account's balance as of the cutoff date in one
// pass over the transaction set.
func Balances(accounts []Account, transactions []Transaction, cutoff Date) []AccountBalance {
	byAccount := make(map[int64]Money, len(accounts))
	for _, tx := range transactions {
		if tx.AccountID == 0 || tx.Date.After(cutoff) {
			continue
		}
		byAccount[tx.AccountID] = byAccount[tx.AccountID].Add(tx.Signed())
	}
	out := make([]AccountBalance, len(accounts))
	for i, a := range accounts {
		out[i] = AccountBalance{Account: a, Balance: a.InitialBalance.Add(byAccount[a.ID])}
	}
	return out
}
