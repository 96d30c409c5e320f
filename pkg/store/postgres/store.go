// Package postgres persists dashboard layouts in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

//go:embed 001_create_dashboard_layouts.sql
var migrationSQL string

// Config holds the connection settings.
type Config struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	MaxPoolSize int
}

// ConnString renders the libpq style connection string.
func (c Config) ConnString() string {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Store implements dashboard.LayoutStore on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ dashboard.LayoutStore = (*Store)(nil)

// New connects, pings and migrates the database.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("executing migration: %w", err)
	}
	logger.Info("postgres layout store ready", "host", cfg.Host, "database", cfg.Database)
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LoadLayout implements dashboard.LayoutStore.
func (s *Store) LoadLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, bool, error) {
	var (
		layout  dashboard.Layout
		id      uuid.UUID
		raw     []byte
		created time.Time
		updated time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, widgets, created_at, updated_at FROM dashboard_layouts WHERE user_id = $1`,
		viewer.UserID,
	).Scan(&id, &layout.UserID, &raw, &created, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return dashboard.Layout{}, false, nil
	}
	if err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("query layout: %w", err)
	}
	if err := json.Unmarshal(raw, &layout.Widgets); err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("decode widgets: %w", err)
	}
	if layout.Widgets == nil {
		layout.Widgets = []dashboard.Widget{}
	}
	layout.ID = id.String()
	layout.CreatedAt, layout.UpdatedAt = &created, &updated
	return layout, true, nil
}

// SaveLayout implements dashboard.LayoutStore.
func (s *Store) SaveLayout(ctx context.Context, viewer dashboard.ViewerContext, widgets []dashboard.Widget) error {
	if widgets == nil {
		widgets = []dashboard.Widget{}
	}
	raw, err := json.Marshal(widgets)
	if err != nil {
		return fmt.Errorf("encode widgets: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO dashboard_layouts (id, user_id, widgets)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET widgets = EXCLUDED.widgets, updated_at = now()`,
		uuid.New(), viewer.UserID, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert layout: %w", err)
	}
	return nil
}
