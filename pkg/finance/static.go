package finance

import (
	"context"
	"sync"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// StaticData seeds deterministic finance data for tests or local demos.
type StaticData struct {
	Wallets      []dashboard.Wallet
	Transactions []dashboard.Transaction
	Categories   []dashboard.Category
}

// StaticSource implements dashboard.FinanceSource using in-memory fixtures.
type StaticSource struct {
	mu   sync.RWMutex
	data StaticData
}

var _ dashboard.FinanceSource = (*StaticSource)(nil)

// NewStaticSource builds a source from the provided fixtures.
func NewStaticSource(data StaticData) *StaticSource {
	return &StaticSource{data: data}
}

// AddTransaction appends a transaction. Callers announce the change on the
// invalidation bus themselves.
func (s *StaticSource) AddTransaction(tx dashboard.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Transactions = append(s.data.Transactions, tx)
}

// Wallets returns a copy of the wallet fixtures.
func (s *StaticSource) Wallets(context.Context) ([]dashboard.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dashboard.Wallet(nil), s.data.Wallets...), nil
}

// Transactions returns fixtures of kind whose date lies inside rng. Dates
// are YYYY-MM-DD so string comparison orders them.
func (s *StaticSource) Transactions(_ context.Context, rng dashboard.DateRange, kind dashboard.TransactionType) ([]dashboard.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dashboard.Transaction
	for _, tx := range s.data.Transactions {
		if tx.Type != kind {
			continue
		}
		if rng.StartDate != "" && tx.Date < rng.StartDate {
			continue
		}
		if rng.EndDate != "" && tx.Date > rng.EndDate {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Categories returns a copy of the category fixtures.
func (s *StaticSource) Categories(context.Context) ([]dashboard.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dashboard.Category(nil), s.data.Categories...), nil
}
