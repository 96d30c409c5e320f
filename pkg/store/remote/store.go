// Package remote bridges dashboard layouts to the finance API's
// /dashboard-layout resource (GET and PUT {widgets}).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// TokenSource resolves the bearer token forwarded for the request in ctx.
type TokenSource func(ctx context.Context) (string, error)

// Config configures the bridge.
type Config struct {
	BaseURL    string
	Path       string
	Token      TokenSource
	HTTPClient *http.Client
	Attempts   uint
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Store implements dashboard.LayoutStore over HTTP.
type Store struct {
	endpoint string
	token    TokenSource
	client   *http.Client
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

var _ dashboard.LayoutStore = (*Store)(nil)

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote layout: unexpected status %d: %s", e.Status, e.Body)
}

// New builds a bridge for cfg.BaseURL.
func New(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote layout: base url is required")
	}
	if cfg.Path == "" {
		cfg.Path = "/dashboard-layout"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
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
	return &Store{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + cfg.Path,
		token:    cfg.Token,
		client:   cfg.HTTPClient,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		logger:   cfg.Logger,
	}, nil
}

// layoutBody is the wire shape. A missing widgets field means no layout
// has been saved; an empty array is a saved empty layout.
type layoutBody struct {
	ID        string              `json:"id,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	Widgets   *[]dashboard.Widget `json:"widgets"`
	CreatedAt *time.Time          `json:"created_at,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
}

// LoadLayout implements dashboard.LayoutStore. 404 and a body without a
// widget list both report "no record".
func (s *Store) LoadLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, bool, error) {
	var body *layoutBody
	err := s.retry(ctx, "load", func() error {
		body = nil
		resp, err := s.send(ctx, http.MethodGet, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("remote layout: decode: %w", err)
		}
		return nil
	})
	if err != nil {
		return dashboard.Layout{}, false, err
	}
	if body == nil || body.Widgets == nil {
		return dashboard.Layout{}, false, nil
	}
	layout := dashboard.Layout{
		ID:        body.ID,
		UserID:    body.UserID,
		Widgets:   *body.Widgets,
		CreatedAt: body.CreatedAt,
		UpdatedAt: body.UpdatedAt,
	}
	if layout.UserID == "" {
		layout.UserID = viewer.UserID
	}
	return layout, true, nil
}

// SaveLayout implements dashboard.LayoutStore with PUT {widgets}.
func (s *Store) SaveLayout(ctx context.Context, _ dashboard.ViewerContext, widgets []dashboard.Widget) error {
	if widgets == nil {
		widgets = []dashboard.Widget{}
	}
	payload, err := json.Marshal(layoutBody{Widgets: &widgets})
	if err != nil {
		return fmt.Errorf("remote layout: encode: %w", err)
	}
	return s.retry(ctx, "save", func() error {
		resp, err := s.send(ctx, http.MethodPut, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return checkStatus(resp)
	})
}

func (s *Store) retry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("remote layout request failed, retrying", "operation", op, "attempt", n+1, "error", err)
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
	)
}

func (s *Store) send(ctx context.Context, method string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("remote layout: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != nil {
		token, err := s.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("remote layout: resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote layout: http request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
}

func isTransient(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status == http.StatusTooManyRequests || status.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
