package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	core "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/finance"
)

// demoFinance returns a small fixture set dated around now so the default
// widgets have something to show without a finance API.
func demoFinance(now time.Time) *finance.StaticSource {
	categories := []core.Category{
		{ID: "salary", Name: "Salary", Type: core.TransactionIncome},
		{ID: "groceries", Name: "Groceries", Type: core.TransactionExpense},
		{ID: "rent", Name: "Rent", Type: core.TransactionExpense},
		{ID: "leisure", Name: "Leisure", Type: core.TransactionExpense},
	}
	var txs []core.Transaction
	for m := 0; m < 3; m++ {
		month := now.AddDate(0, -m, 0)
		day := func(d int) string {
			return time.Date(month.Year(), month.Month(), d, 0, 0, 0, 0, time.UTC).Format(core.DateLayout)
		}
		txs = append(txs,
			core.Transaction{ID: fmt.Sprintf("inc-%d", m), Type: core.TransactionIncome, Amount: decimal.NewFromInt(3200), Date: day(1), CategoryID: "salary", WalletID: "checking"},
			core.Transaction{ID: fmt.Sprintf("rent-%d", m), Type: core.TransactionExpense, Amount: decimal.NewFromInt(1100), Date: day(2), CategoryID: "rent", WalletID: "checking"},
			core.Transaction{ID: fmt.Sprintf("food-%d", m), Type: core.TransactionExpense, Amount: decimal.RequireFromString("412.35"), Date: day(12), CategoryID: "groceries", WalletID: "checking"},
			core.Transaction{ID: fmt.Sprintf("fun-%d", m), Type: core.TransactionExpense, Amount: decimal.RequireFromString("96.80"), Date: day(20), CategoryID: "leisure", WalletID: "card"},
		)
	}
	return finance.NewStaticSource(finance.StaticData{
		Wallets: []core.Wallet{
			{ID: "checking", Name: "Checking", Balance: decimal.RequireFromString("2840.12"), Currency: "EUR"},
			{ID: "savings", Name: "Savings", Balance: decimal.NewFromInt(10500), Currency: "EUR"},
		},
		Transactions: txs,
		Categories:   categories,
	})
}
