// Package dashboard is the public entry point: it re-exports the core types
// and assembles a ready-to-serve stack of service, controller and bus.
package dashboard

import (
	"errors"
	"log/slog"
	"time"

	core "github.com/goliatone/go-gridboard/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Re-exported core types.
type (
	Widget          = core.Widget
	WidgetPosition  = core.WidgetPosition
	WidgetConfig    = core.WidgetConfig
	Layout          = core.Layout
	LayoutStore     = core.LayoutStore
	ViewerContext   = core.ViewerContext
	FinanceSource   = core.FinanceSource
	Controller      = core.Controller
	InvalidationBus = core.InvalidationBus
	ContentCache    = core.ContentCache
	Registry        = core.Registry
	ChartOption     = core.ChartOption
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// StackOptions configures NewStack.
type StackOptions struct {
	Store      LayoutStore
	Finance    FinanceSource
	Manifests  []string
	SessionTTL time.Duration
	// CacheTTL of zero disables widget content caching.
	CacheTTL time.Duration
	Charts   []ChartOption
	Logger   *slog.Logger
	// AllowedOrigins extends the WebSocket same-host origin check.
	AllowedOrigins []string
}

// Stack is a fully wired dashboard.
type Stack struct {
	Service    *Service
	Controller *Controller
	Bus        *InvalidationBus
	Cache      *ContentCache
	Registry   *Registry
}

// NewStack loads the catalog, registers the finance providers and connects
// the content cache and notifications to a fresh invalidation bus.
func NewStack(opts StackOptions) (*Stack, error) {
	if opts.Store == nil {
		return nil, errors.New("dashboard: stack requires a layout store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	registry, err := core.LoadCatalog(opts.Manifests...)
	if err != nil {
		return nil, err
	}
	if opts.Finance != nil {
		if err := core.RegisterFinanceProviders(registry, opts.Finance, core.NewChartRenderer(opts.Charts...)); err != nil {
			return nil, err
		}
	}
	bus := core.NewInvalidationBus()
	bus.AllowOrigins(opts.AllowedOrigins...)
	var cache *ContentCache
	if opts.CacheTTL > 0 {
		cache = core.NewContentCache(opts.CacheTTL)
		cache.Attach(bus)
	}
	service := core.NewService(core.Options{
		Store:       opts.Store,
		Registry:    registry,
		RefreshHook: bus,
		Telemetry:   core.SlogTelemetry{Logger: opts.Logger, Level: slog.LevelDebug},
		Notifier: core.Notifiers{
			core.LogNotifier{Logger: opts.Logger},
			core.BusNotifier{Bus: bus},
		},
		Cache:      cache,
		SessionTTL: opts.SessionTTL,
		Logger:     opts.Logger,
	})
	return &Stack{
		Service:    service,
		Controller: core.NewController(service),
		Bus:        bus,
		Cache:      cache,
		Registry:   registry,
	}, nil
}
