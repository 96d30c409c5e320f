package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	core "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/httpapi"
	"github.com/goliatone/go-gridboard/pkg/auth"
	"github.com/goliatone/go-gridboard/pkg/config"
	"github.com/goliatone/go-gridboard/pkg/dashboard"
	"github.com/goliatone/go-gridboard/pkg/events/amqp"
	"github.com/goliatone/go-gridboard/pkg/finance"
	"github.com/goliatone/go-gridboard/pkg/logger"
	"github.com/goliatone/go-gridboard/pkg/store/firestore"
	"github.com/goliatone/go-gridboard/pkg/store/postgres"
	"github.com/goliatone/go-gridboard/pkg/store/remote"
	"github.com/goliatone/go-gridboard/pkg/store/sqlite"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogJSON)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	instanceID := uuid.NewString()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := openFinance(cfg, log)
	if err != nil {
		return err
	}

	stack, err := dashboard.NewStack(dashboard.StackOptions{
		Store:      store,
		Finance:    source,
		Manifests:  cfg.ManifestPaths(),
		SessionTTL: cfg.SessionTTL,
		CacheTTL:   cfg.CacheTTL,
		Logger:     log,

		AllowedOrigins: cfg.Origins(),
	})
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	if cfg.AMQPURL != "" {
		forwarder, err := amqp.Dial(cfg.AMQPURL, cfg.AMQPExchange, instanceID, log)
		if err != nil {
			return err
		}
		defer forwarder.Close()
		stack.Bus.ForwardTo(forwarder)
		// A layout changed on another instance makes the local session stale.
		stack.Bus.Listen(func(e core.InvalidationEvent) {
			if e.Origin != "" && e.Origin != instanceID && e.HasTag(core.TagDashboardLayout) {
				stack.Service.Forget(e.UserID)
			}
		})
		go func() {
			if err := forwarder.Consume(ctx, stack.Bus.Deliver); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("invalidation consumer stopped", "error", err)
			}
		}()
		log.Info("invalidation forwarding enabled", "exchange", cfg.AMQPExchange, "instance", instanceID)
	}

	authn, err := authMiddleware(ctx, cfg)
	if err != nil {
		return err
	}

	telemetry := core.SlogTelemetry{Logger: log, Level: slog.LevelInfo}
	api := httpapi.New(stack.Service, stack.Controller, stack.Bus, telemetry)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Mount("/", api.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting gridboard server", "addr", cfg.Addr, "store", cfg.Store, "auth", cfg.Auth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (core.LayoutStore, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, log)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		s, err := postgres.New(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.StoreFirestore:
		s, err := firestore.Open(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreRemote:
		s, err := remote.New(remote.Config{BaseURL: cfg.RemoteURL, Token: auth.TokenFromContext, Logger: log})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		log.Warn("layouts are kept in memory and lost on restart")
		return core.NewInMemoryLayoutStore(), noop, nil
	}
}

func openFinance(cfg config.Config, log *slog.Logger) (core.FinanceSource, error) {
	if cfg.FinanceURL == "" {
		log.Warn("no finance API configured, serving demo data")
		return demoFinance(time.Now()), nil
	}
	return finance.NewHTTPClient(finance.HTTPConfig{
		BaseURL: cfg.FinanceURL,
		Token:   auth.TokenFromContext,
		Logger:  log,
	})
}

func authMiddleware(ctx context.Context, cfg config.Config) (func(http.Handler) http.Handler, error) {
	switch cfg.Auth {
	case config.AuthNone:
		return auth.Anonymous(core.ViewerContext{UserID: "local"}), nil
	case config.AuthFirebase:
		verifier, err := auth.NewFirebaseVerifier(ctx)
		if err != nil {
			return nil, err
		}
		return auth.Middleware(verifier), nil
	default:
		return auth.HeaderMiddleware, nil
	}
}
