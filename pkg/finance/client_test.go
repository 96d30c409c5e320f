package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

func staticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

func TestHTTPClientWallets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wallet" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		_, _ = w.Write([]byte(`[{"id":1,"name":"Main","balance":1200.5,"currency":"EUR"},{"id":"w2","name":"Cash","balance":"10.25"}]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Token: staticToken("secret")})
	require.NoError(t, err)
	wallets, err := client.Wallets(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "1", wallets[0].ID)
	assert.True(t, wallets[0].Balance.Equal(decimal.RequireFromString("1200.5")))
	assert.Equal(t, "w2", wallets[1].ID)
}

func TestHTTPClientTransactionsUsesTypedEndpoint(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path + "?" + r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":7,"amount":42,"date":"2024-03-05T00:00:00Z","type":"E","category_id":3,"wallet_id":1}]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/"})
	require.NoError(t, err)
	txs, err := client.Transactions(context.Background(), dashboard.DateRange{StartDate: "2024-03-01", EndDate: "2024-03-31"}, dashboard.TransactionExpense)
	require.NoError(t, err)
	assert.Equal(t, "/expense/all?endDate=2024-03-31&startDate=2024-03-01", seen)
	require.Len(t, txs, 1)
	assert.Equal(t, dashboard.TransactionExpense, txs[0].Type)
	assert.Equal(t, "2024-03-05", txs[0].Date)
	assert.Equal(t, "3", txs[0].CategoryID)
}

func TestHTTPClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"name":"Food","type":"expense"}]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	cats, err := client.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Food", cats[0].Name)
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	_, err = client.Wallets(context.Background())
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusUnauthorized, status.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

func TestStaticSourceFiltersByRangeAndKind(t *testing.T) {
	src := NewStaticSource(StaticData{Transactions: []dashboard.Transaction{
		{ID: "1", Type: dashboard.TransactionIncome, Amount: decimal.NewFromInt(10), Date: "2024-01-05"},
		{ID: "2", Type: dashboard.TransactionExpense, Amount: decimal.NewFromInt(4), Date: "2024-01-06"},
		{ID: "3", Type: dashboard.TransactionIncome, Amount: decimal.NewFromInt(7), Date: "2024-02-01"},
	}})
	txs, err := src.Transactions(context.Background(), dashboard.DateRange{StartDate: "2024-01-01", EndDate: "2024-01-31"}, dashboard.TransactionIncome)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "1", txs[0].ID)

	src.AddTransaction(dashboard.Transaction{ID: "4", Type: dashboard.TransactionIncome, Date: "2024-01-20"})
	txs, _ = src.Transactions(context.Background(), dashboard.DateRange{StartDate: "2024-01-01", EndDate: "2024-01-31"}, dashboard.TransactionIncome)
	assert.Len(t, txs, 2)
}
