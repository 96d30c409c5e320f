// Package finance reads wallets, transactions and categories from the
// finance REST API and exposes them as a dashboard.FinanceSource.
package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// TokenSource resolves the bearer token forwarded to the finance API for the
// request carried by ctx.
type TokenSource func(ctx context.Context) (string, error)

// HTTPConfig configures the HTTP finance client.
type HTTPConfig struct {
	BaseURL    string
	Token      TokenSource
	HTTPClient *http.Client
	Attempts   uint
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// HTTPClient talks to the finance REST API.
type HTTPClient struct {
	baseURL  string
	token    TokenSource
	client   *http.Client
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

var _ dashboard.FinanceSource = (*HTTPClient)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("finance: remote error %d: %s", e.Status, e.Body)
}

// Transient reports whether the request may succeed when retried.
func (e *StatusError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NewHTTPClient builds a client for the finance API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("finance: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		client:   httpClient,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		logger:   cfg.Logger,
	}, nil
}

// Wallets implements dashboard.FinanceSource.
func (c *HTTPClient) Wallets(ctx context.Context) ([]dashboard.Wallet, error) {
	var resp []walletDTO
	if err := c.get(ctx, "/wallet", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.Wallet, len(resp))
	for i, w := range resp {
		out[i] = w.toWallet()
	}
	return out, nil
}

// Transactions implements dashboard.FinanceSource using the per-type
// endpoints, which filter by date server side.
func (c *HTTPClient) Transactions(ctx context.Context, rng dashboard.DateRange, kind dashboard.TransactionType) ([]dashboard.Transaction, error) {
	path := "/income/all"
	if kind == dashboard.TransactionExpense {
		path = "/expense/all"
	}
	query := url.Values{}
	if rng.StartDate != "" {
		query.Set("startDate", rng.StartDate)
	}
	if rng.EndDate != "" {
		query.Set("endDate", rng.EndDate)
	}
	var resp []transactionDTO
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.Transaction, len(resp))
	for i, tx := range resp {
		out[i] = tx.toTransaction(kind)
	}
	return out, nil
}

// Categories implements dashboard.FinanceSource.
func (c *HTTPClient) Categories(ctx context.Context) ([]dashboard.Category, error) {
	var resp []categoryDTO
	if err := c.get(ctx, "/category", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.Category, len(resp))
	for i, cat := range resp {
		out[i] = cat.toCategory()
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return retry.Do(
		func() error { return c.do(ctx, http.MethodGet, endpoint, target) },
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("finance request failed, retrying", "path", path, "attempt", n+1, "error", err)
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("finance: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("finance: resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("finance: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("finance: decode response: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
