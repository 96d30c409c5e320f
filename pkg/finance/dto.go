package finance

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// id accepts numeric and string identifiers; the API uses both.
type id string

func (i *id) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = id(n.String())
	return nil
}

type walletDTO struct {
	ID       id              `json:"id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

func (w walletDTO) toWallet() dashboard.Wallet {
	return dashboard.Wallet{ID: string(w.ID), Name: w.Name, Balance: w.Balance, Currency: w.Currency}
}

type transactionDTO struct {
	ID          id              `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	WalletID    id              `json:"wallet_id"`
	CategoryID  id              `json:"category_id"`
}

// toTransaction maps the API's "I"/"E" type code, falling back to the
// endpoint's kind when the code is missing.
func (t transactionDTO) toTransaction(fallback dashboard.TransactionType) dashboard.Transaction {
	kind := fallback
	switch t.Type {
	case "I":
		kind = dashboard.TransactionIncome
	case "E":
		kind = dashboard.TransactionExpense
	}
	date := t.Date
	if len(date) > len(dashboard.DateLayout) {
		date = date[:len(dashboard.DateLayout)]
	}
	return dashboard.Transaction{
		ID:          string(t.ID),
		Type:        kind,
		Amount:      t.Amount,
		Date:        date,
		Description: t.Description,
		CategoryID:  string(t.CategoryID),
		WalletID:    string(t.WalletID),
	}
}

type categoryDTO struct {
	ID   id     `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (c categoryDTO) toCategory() dashboard.Category {
	return dashboard.Category{ID: string(c.ID), Name: c.Name, Type: dashboard.TransactionType(c.Type)}
}
