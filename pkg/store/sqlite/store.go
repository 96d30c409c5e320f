// Package sqlite persists dashboard layouts in a local SQLite database, one
// row per user with the widget list stored as a JSON document.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// Store implements dashboard.LayoutStore on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ dashboard.LayoutStore = (*Store)(nil)

// Open creates the database file if needed, runs migrations and returns a store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite layout store ready", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadLayout implements dashboard.LayoutStore.
func (s *Store) LoadLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, bool, error) {
	var (
		layout  dashboard.Layout
		raw     string
		created time.Time
		updated time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, widgets, created_at, updated_at FROM dashboard_layouts WHERE user_id = ?`,
		viewer.UserID,
	).Scan(&layout.ID, &layout.UserID, &raw, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return dashboard.Layout{}, false, nil
	}
	if err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("query layout: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &layout.Widgets); err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("decode widgets: %w", err)
	}
	if layout.Widgets == nil {
		layout.Widgets = []dashboard.Widget{}
	}
	layout.CreatedAt, layout.UpdatedAt = &created, &updated
	return layout, true, nil
}

// SaveLayout implements dashboard.LayoutStore with an upsert keyed by user.
func (s *Store) SaveLayout(ctx context.Context, viewer dashboard.ViewerContext, widgets []dashboard.Widget) error {
	if widgets == nil {
		widgets = []dashboard.Widget{}
	}
	raw, err := json.Marshal(widgets)
	if err != nil {
		return fmt.Errorf("encode widgets: %w", err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboard_layouts (id, user_id, widgets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET widgets = excluded.widgets, updated_at = excluded.updated_at`,
		uuid.NewString(), viewer.UserID, string(raw), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert layout: %w", err)
	}
	s.logger.DebugContext(ctx, "layout saved", "user_id", viewer.UserID, "widgets", len(widgets))
	return nil
}
