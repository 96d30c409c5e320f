package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultSessionTTL is how long an idle viewer session keeps its engine.
const DefaultSessionTTL = 30 * time.Minute

var errMissingLayoutStore = errors.New("dashboard: layout store not configured")

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Store           LayoutStore
	Registry        ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Notifier        Notifier
	Translator      TranslationService
	Cache           *ContentCache
	Grid            Grid
	SessionTTL      time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Service keeps one layout engine per viewer and persists through the store.
// Consecutive mutations by the same viewer validate against the latest
// in-memory list rather than a re-fetched copy.
type Service struct {
	opts     Options
	mu       sync.Mutex
	sessions map[string]*session
	// loads collapses concurrent first loads of the same viewer. The store is
	// called without holding mu.
	loads singleflight.Group
}

type session struct {
	engine   *Engine
	meta     Layout
	lastUsed time.Time
}

// MutationResult is returned by every layout mutation.
type MutationResult struct {
	Widget  *Widget `json:"widget,omitempty"`
	Changed bool    `json:"changed"`
	Layout  Layout  `json:"layout"`
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Grid = opts.Grid.normalized()
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts, sessions: make(map[string]*session)}
}

// Grid returns the canvas layouts are validated against.
func (s *Service) Grid() Grid {
	return s.opts.Grid
}

// Registry returns the widget catalog.
func (s *Service) Registry() ProviderRegistry {
	return s.opts.Registry
}

// Layout returns the viewer's current layout, loading it on first use.
func (s *Service) Layout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	s.recordTelemetry(ctx, "dashboard.layout.resolve", map[string]any{"user_id": viewer.UserID})
	return s.snapshot(viewer, sess), nil
}

// AddWidget allocates a widget of kind at the first free position.
func (s *Service) AddWidget(ctx context.Context, viewer ViewerContext, kind WidgetKind, config *WidgetConfig) (MutationResult, error) {
	def, ok := s.opts.Registry.Definition(kind)
	if !ok {
		return MutationResult{}, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, kind)
	}
	if err := s.opts.ConfigValidator.Validate(def, config); err != nil {
		return MutationResult{}, err
	}
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	widget, err := sess.engine.Add(ctx, kind, config)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "add", &widget, true, err)
}

// RemoveWidget deletes the widget with id.
func (s *Service) RemoveWidget(ctx context.Context, viewer ViewerContext, id string) (MutationResult, error) {
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	err = sess.engine.Remove(ctx, id)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "remove", &Widget{ID: id}, true, err)
}

// RelocateRequest describes a finished drag.
type RelocateRequest struct {
	ID      string
	Delta   PixelDelta
	Cell    CellSize
	Stacked bool
}

// RelocateWidget applies a drag. Collisions return ErrCollision and leave the layout unchanged.
func (s *Service) RelocateWidget(ctx context.Context, viewer ViewerContext, req RelocateRequest) (MutationResult, error) {
	if req.Stacked {
		return MutationResult{}, ErrStackedMode
	}
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	widget, changed, err := sess.engine.Relocate(ctx, req.ID, req.Delta, req.Cell)
	if err != nil && !isPersistenceError(err) {
		if errors.Is(err, ErrCollision) {
			s.recordTelemetry(ctx, "dashboard.widget.collision", map[string]any{"user_id": viewer.UserID, "widget_id": req.ID})
		}
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "relocate", &widget, changed, err)
}

// MoveWidget places the widget at an absolute cell.
func (s *Service) MoveWidget(ctx context.Context, viewer ViewerContext, id string, x, y int) (MutationResult, error) {
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	widget, changed, err := sess.engine.MoveTo(ctx, id, x, y)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "relocate", &widget, changed, err)
}

// ResizeWidget changes the widget span.
func (s *Service) ResizeWidget(ctx context.Context, viewer ViewerContext, id string, w, h int, stacked bool) (MutationResult, error) {
	if stacked {
		return MutationResult{}, ErrStackedMode
	}
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	widget, changed, err := sess.engine.Resize(ctx, id, w, h)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "resize", &widget, changed, err)
}

// UpdateWidgetConfig replaces the widget date range after validating it.
func (s *Service) UpdateWidgetConfig(ctx context.Context, viewer ViewerContext, id string, config *WidgetConfig) (MutationResult, error) {
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	current, ok := sess.engine.Widget(id)
	if !ok {
		return MutationResult{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	if def, ok := s.opts.Registry.Definition(current.Type); ok {
		if err := s.opts.ConfigValidator.Validate(def, config); err != nil {
			return MutationResult{}, err
		}
	}
	widget, err := sess.engine.UpdateConfig(ctx, id, config)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "config", &widget, true, err)
}

// ReplaceLayout swaps the viewer's whole widget list after validating it.
func (s *Service) ReplaceLayout(ctx context.Context, viewer ViewerContext, widgets []Widget) (MutationResult, error) {
	for _, w := range widgets {
		def, ok := s.opts.Registry.Definition(w.Type)
		if !ok {
			return MutationResult{}, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, w.Type)
		}
		if err := s.opts.ConfigValidator.Validate(def, w.Config); err != nil {
			return MutationResult{}, err
		}
	}
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return MutationResult{}, err
	}
	err = sess.engine.Replace(ctx, widgets)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "replace", nil, true, err)
}

// ResetLayout reinstalls the seed layout. It also recovers viewers whose
// persisted layout is invalid.
func (s *Service) ResetLayout(ctx context.Context, viewer ViewerContext) (MutationResult, error) {
	sess, err := s.session(ctx, viewer)
	if errors.Is(err, ErrInvalidLayout) {
		sess = s.replaceSession(viewer, Layout{UserID: viewer.UserID})
		err = nil
	}
	if err != nil {
		return MutationResult{}, err
	}
	err = sess.engine.Reset(ctx)
	if err != nil && !isPersistenceError(err) {
		return MutationResult{}, err
	}
	return s.afterMutation(ctx, viewer, sess, "reset", nil, true, err)
}

// WidgetData computes the content of widget id through its provider. The
// dashboard filter takes precedence over the widget's configured range.
func (s *Service) WidgetData(ctx context.Context, viewer ViewerContext, id string, filter DateRange) (WidgetData, error) {
	sess, err := s.session(ctx, viewer)
	if err != nil {
		return nil, err
	}
	widget, ok := sess.engine.Widget(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return s.fetchWidgetData(ctx, viewer, widget, filter)
}

func (s *Service) fetchWidgetData(ctx context.Context, viewer ViewerContext, widget Widget, filter DateRange) (WidgetData, error) {
	def, ok := s.opts.Registry.Definition(widget.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, widget.Type)
	}
	provider, ok := s.opts.Registry.Provider(widget.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, widget.Type)
	}
	meta := WidgetContext{
		Widget:     widget,
		Definition: def,
		Viewer:     viewer,
		Translator: s.opts.Translator,
	}
	if def.UsesDateRange {
		meta.Range = EffectiveDateRange(filter, widget.Config, s.opts.Now())
	}
	load := func() (WidgetData, error) { return provider.Fetch(ctx, meta) }
	if s.opts.Cache == nil {
		return load()
	}
	key := contentKey(viewer.UserID+"|"+viewer.Locale, widget.Type, meta.Range)
	return s.opts.Cache.GetOrLoad(key, viewer.UserID, def.Resources, load)
}

// CatalogEntry is a localized catalog item.
type CatalogEntry struct {
	Type          WidgetKind `json:"type"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      string     `json:"category,omitempty"`
	UsesDateRange bool       `json:"uses_date_range"`
	DefaultSize   Size       `json:"default_size"`
}

// Catalog lists the widget kinds a viewer can add, localized for locale.
func (s *Service) Catalog(locale string) []CatalogEntry {
	defs := s.opts.Registry.Definitions()
	out := make([]CatalogEntry, 0, len(defs))
	for _, def := range defs {
		out = append(out, CatalogEntry{
			Type:          def.Kind,
			Name:          def.NameForLocale(locale),
			Description:   def.DescriptionForLocale(locale),
			Category:      def.Category,
			UsesDateRange: def.UsesDateRange,
			DefaultSize:   def.SizeOrDefault(),
		})
	}
	return out
}

// Forget drops the cached session of a viewer so the next call reloads from the store.
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Service) session(ctx context.Context, viewer ViewerContext) (*session, error) {
	if viewer.UserID == "" {
		return nil, ErrMissingViewer
	}
	if s.opts.Store == nil {
		return nil, errMissingLayoutStore
	}
	now := s.opts.Now()

	s.mu.Lock()
	s.evictExpiredLocked(now)
	if sess, ok := s.sessions[viewer.UserID]; ok {
		sess.lastUsed = now
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	v, err, _ := s.loads.Do(viewer.UserID, func() (any, error) {
		return s.loadSession(ctx, viewer, now)
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *Service) loadSession(ctx context.Context, viewer ViewerContext, now time.Time) (*session, error) {
	layout, found, err := s.opts.Store.LoadLayout(ctx, viewer)
	if err != nil {
		s.opts.Logger.ErrorContext(ctx, "dashboard layout load failed", "user_id", viewer.UserID, "error", err)
		return nil, &LoadError{Err: err}
	}
	sess := s.newSession(viewer)
	if err := sess.engine.LoadInitial(layout, found); err != nil {
		s.opts.Logger.WarnContext(ctx, "dashboard persisted layout rejected", "user_id", viewer.UserID, "error", err)
		return nil, err
	}
	sess.meta = Layout{ID: layout.ID, UserID: viewer.UserID, CreatedAt: layout.CreatedAt, UpdatedAt: layout.UpdatedAt}
	sess.lastUsed = now

	s.mu.Lock()
	defer s.mu.Unlock()
	// A replace or reset may have installed a session while the store was read.
	if existing, ok := s.sessions[viewer.UserID]; ok {
		existing.lastUsed = now
		return existing, nil
	}
	s.sessions[viewer.UserID] = sess
	return sess, nil
}

func (s *Service) replaceSession(viewer ViewerContext, meta Layout) *session {
	sess := s.newSession(viewer)
	_ = sess.engine.LoadInitial(Layout{}, false)
	sess.meta = meta
	sess.lastUsed = s.opts.Now()
	s.mu.Lock()
	s.sessions[viewer.UserID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Service) newSession(viewer ViewerContext) *session {
	store := s.opts.Store
	return &session{
		engine: NewEngine(EngineOptions{
			Grid:    s.opts.Grid,
			Catalog: s.opts.Registry,
			Save: func(ctx context.Context, widgets []Widget) error {
				return store.SaveLayout(ctx, viewer, widgets)
			},
		}),
	}
}

func (s *Service) evictExpiredLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.opts.SessionTTL {
			delete(s.sessions, id)
		}
	}
}

func (s *Service) snapshot(viewer ViewerContext, sess *session) Layout {
	s.mu.Lock()
	layout := sess.meta
	s.mu.Unlock()
	layout.UserID = viewer.UserID
	layout.Widgets = sess.engine.Widgets()
	return layout
}

// afterMutation publishes a committed change. saveErr is nil or a
// *PersistenceError; the layout keeps the change either way.
func (s *Service) afterMutation(ctx context.Context, viewer ViewerContext, sess *session, reason string, widget *Widget, changed bool, saveErr error) (MutationResult, error) {
	if changed && saveErr == nil {
		now := s.opts.Now().UTC()
		s.mu.Lock()
		sess.meta.UpdatedAt = &now
		if sess.meta.CreatedAt == nil {
			sess.meta.CreatedAt = &now
		}
		s.mu.Unlock()
	}
	result := MutationResult{Changed: changed, Layout: s.snapshot(viewer, sess)}
	if widget != nil && widget.ID != "" {
		if current, ok := sess.engine.Widget(widget.ID); ok {
			result.Widget = &current
		} else {
			w := widget.Clone()
			result.Widget = &w
		}
	}
	if !changed {
		return result, nil
	}

	event := LayoutEvent{
		UserID:  viewer.UserID,
		Reason:  reason,
		Tags:    []string{TagDashboardLayout},
		Widgets: result.Layout.Widgets,
	}
	if result.Widget != nil {
		event.WidgetID = result.Widget.ID
	}
	if err := s.opts.RefreshHook.LayoutUpdated(ctx, event); err != nil {
		s.opts.Logger.WarnContext(ctx, "dashboard refresh hook failed", "user_id", viewer.UserID, "reason", reason, "error", err)
	}
	payload := map[string]any{
		"user_id": viewer.UserID,
		"reason":  reason,
		"widgets": len(result.Layout.Widgets),
	}
	if event.WidgetID != "" {
		payload["widget_id"] = event.WidgetID
	}
	s.recordTelemetry(ctx, "dashboard.layout."+reason, payload)

	if saveErr != nil {
		s.opts.Logger.ErrorContext(ctx, "dashboard layout save failed", "user_id", viewer.UserID, "reason", reason, "error", saveErr)
		s.recordTelemetry(ctx, "dashboard.layout.save_failed", payload)
		message := translateOrFallback(ctx, s.opts.Translator, "dashboard.layout.save_failed", viewer.Locale, "Error saving layout", nil)
		if err := s.opts.Notifier.Notify(ctx, viewer, Notification{Level: NotificationError, Message: message}); err != nil {
			s.opts.Logger.WarnContext(ctx, "dashboard notifier failed", "user_id", viewer.UserID, "error", err)
		}
		return result, saveErr
	}
	return result, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func isPersistenceError(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}
