// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Store backends.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreRemote    = "remote"
)

// Auth modes.
const (
	AuthNone     = "none"
	AuthHeader   = "header"
	AuthFirebase = "firebase"
)

// Config holds the server configuration loaded from environment variables.
type Config struct {
	Addr     string `koanf:"GRIDBOARD_ADDR"`
	LogLevel string `koanf:"GRIDBOARD_LOG_LEVEL"`
	LogJSON  bool   `koanf:"GRIDBOARD_LOG_JSON"`

	// Store selects the layout persistence backend.
	Store            string         `koanf:"GRIDBOARD_STORE"`
	SQLitePath       string         `koanf:"GRIDBOARD_SQLITE_PATH"`
	FirestoreProject string         `koanf:"GRIDBOARD_FIRESTORE_PROJECT"`
	RemoteURL        string         `koanf:"GRIDBOARD_REMOTE_URL"`
	Postgres         PostgresConfig `koanf:",squash"`

	// FinanceURL is the finance API widgets read from. Empty serves demo data.
	FinanceURL string `koanf:"GRIDBOARD_FINANCE_URL"`

	AMQPURL      string `koanf:"GRIDBOARD_AMQP_URL"`
	AMQPExchange string `koanf:"GRIDBOARD_AMQP_EXCHANGE"`

	// Manifests is a comma separated list of extra catalog manifests.
	Manifests string `koanf:"GRIDBOARD_MANIFEST"`

	SessionTTL time.Duration `koanf:"GRIDBOARD_SESSION_TTL"`
	CacheTTL   time.Duration `koanf:"GRIDBOARD_CACHE_TTL"`

	Auth string `koanf:"GRIDBOARD_AUTH"`

	// AllowedOrigins is a comma separated list of browser origins allowed to
	// open WebSocket subscriptions besides the serving host.
	AllowedOrigins string `koanf:"GRIDBOARD_ALLOWED_ORIGINS"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// Defaults returns the configuration used for unset variables.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		LogLevel:     "info",
		Store:        StoreMemory,
		SQLitePath:   "./data/gridboard.db",
		AMQPExchange: "gridboard.invalidation",
		SessionTTL:   30 * time.Minute,
		CacheTTL:     5 * time.Minute,
		Auth:         AuthHeader,
		Postgres:     PostgresConfig{Port: 5432, SSLMode: "disable"},
	}
}

// Load reads envFiles (missing files are ignored) and then the process
// environment, which wins over file values.
func Load(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ManifestPaths splits Manifests into trimmed, non-empty paths.
func (c Config) ManifestPaths() []string {
	return splitList(c.Manifests)
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("GRIDBOARD_ADDR must not be empty"))
	}
	stores := []string{StoreMemory, StoreSQLite, StorePostgres, StoreFirestore, StoreRemote}
	if !slices.Contains(stores, c.Store) {
		errs = append(errs, fmt.Errorf("GRIDBOARD_STORE %q must be one of %s", c.Store, strings.Join(stores, ", ")))
	}
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("GRIDBOARD_SQLITE_PATH is required for the sqlite store"))
		}
	case StorePostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			errs = append(errs, errors.New("POSTGRES_HOST and POSTGRES_DB are required for the postgres store"))
		}
	case StoreFirestore:
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("GRIDBOARD_FIRESTORE_PROJECT is required for the firestore store"))
		}
	case StoreRemote:
		if err := validURL("GRIDBOARD_REMOTE_URL", c.RemoteURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.FinanceURL != "" {
		if err := validURL("GRIDBOARD_FINANCE_URL", c.FinanceURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		errs = append(errs, errors.New("GRIDBOARD_AMQP_EXCHANGE is required when GRIDBOARD_AMQP_URL is set"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("GRIDBOARD_SESSION_TTL must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("GRIDBOARD_CACHE_TTL must not be negative"))
	}
	if !slices.Contains([]string{AuthNone, AuthHeader, AuthFirebase}, c.Auth) {
		errs = append(errs, fmt.Errorf("GRIDBOARD_AUTH %q must be none, header or firebase", c.Auth))
	}
	return errors.Join(errs...)
}

func validURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL", name, raw)
	}
	return nil
}
