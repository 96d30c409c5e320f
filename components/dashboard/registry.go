package dashboard

import (
	"fmt"
	"sort"
	"sync"
)

// WidgetHook lets packages register widget kinds or providers during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry implements ProviderRegistry with hook and manifest support.
type Registry struct {
	mu           sync.RWMutex
	grid         Grid
	definitions  map[WidgetKind]WidgetDefinition
	providers    map[WidgetKind]Provider
	manifestMeta map[WidgetKind]ManifestProvider
}

// NewRegistry builds a registry seeded with the built-in catalog and applies global hooks.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry(DefaultGrid())
	for _, def := range DefaultWidgetDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	_ = reg.ApplyHooks()
	return reg
}

// NewEmptyRegistry returns a registry without definitions. Definition sizes
// are checked against grid.
func NewEmptyRegistry(grid Grid) *Registry {
	return &Registry{
		grid:         grid.normalized(),
		definitions:  map[WidgetKind]WidgetDefinition{},
		providers:    map[WidgetKind]Provider{},
		manifestMeta: map[WidgetKind]ManifestProvider{},
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	hooks := append([]WidgetHook(nil), globalHooks...)
	globalHookMu.Unlock()
	for _, hook := range hooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Kind == "" {
		return fmt.Errorf("dashboard: widget definition type is required")
	}
	size := def.SizeOrDefault()
	if size.W > r.grid.Cols || size.H > r.grid.Rows {
		return fmt.Errorf("dashboard: widget %s default size %dx%d exceeds the %dx%d grid",
			def.Kind, size.W, size.H, r.grid.Cols, r.grid.Rows)
	}
	def.DefaultSize = size
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Kind] = def
	return nil
}

// RegisterProvider associates a content provider with a registered kind.
func (r *Registry) RegisterProvider(kind WidgetKind, provider Provider) error {
	if kind == "" {
		return fmt.Errorf("dashboard: widget type is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("dashboard: provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[kind]; !ok {
		return fmt.Errorf("dashboard: widget definition %s not found", kind)
	}
	r.providers[kind] = provider
	return nil
}

// Definition fetches a widget definition by kind.
func (r *Registry) Definition(kind WidgetKind) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[kind]
	return def, ok
}

// Has reports whether kind is part of the catalog.
func (r *Registry) Has(kind WidgetKind) bool {
	_, ok := r.Definition(kind)
	return ok
}

// Provider fetches the content provider for kind.
func (r *Registry) Provider(kind WidgetKind) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[kind]
	return provider, ok
}

// ProviderMetadata returns any manifest metadata registered for a kind.
func (r *Registry) ProviderMetadata(kind WidgetKind) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[kind]
	return meta, ok
}

// Definitions returns all registered definitions sorted by kind.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Kind < defs[j].Kind })
	return defs
}

func (r *Registry) recordProviderMetadata(kind WidgetKind, meta ManifestProvider) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[kind] = meta
}
