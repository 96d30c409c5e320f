package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransactionType selects incomes or expenses.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Wallet is an account balance owned by the viewer.
type Wallet struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency,omitempty"`
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	WalletID    string          `json:"wallet_id,omitempty"`
}

// Category labels transactions.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type,omitempty"`
}

// FinanceSource reads the viewer's finance data. Implementations resolve the
// viewer credentials from ctx.
type FinanceSource interface {
	Wallets(ctx context.Context) ([]Wallet, error)
	Transactions(ctx context.Context, rng DateRange, kind TransactionType) ([]Transaction, error)
	Categories(ctx context.Context) ([]Category, error)
}
