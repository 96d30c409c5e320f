package dashboard

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"
)

// SaveFunc persists the full widget list after a committed mutation.
type SaveFunc func(ctx context.Context, widgets []Widget) error

// DefinitionLookup resolves catalog entries. *Registry satisfies it.
type DefinitionLookup interface {
	Definition(kind WidgetKind) (WidgetDefinition, bool)
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Grid    Grid
	Catalog DefinitionLookup
	Save    SaveFunc
	NewID   func() string
}

// PixelDelta is the pointer displacement of a finished drag.
type PixelDelta struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CellSize is the rendered size of one grid cell in pixels.
type CellSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Engine owns the widget list of one layout. Every mutator validates the
// candidate layout with the grid gatekeeper before committing, then saves.
type Engine struct {
	mu      sync.Mutex
	grid    Grid
	catalog DefinitionLookup
	save    SaveFunc
	newID   func() string
	widgets []Widget
}

// NewEngine builds an empty engine.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		grid:    opts.Grid.normalized(),
		catalog: opts.Catalog,
		save:    opts.Save,
		newID:   opts.NewID,
		widgets: []Widget{},
	}
	if e.save == nil {
		e.save = func(context.Context, []Widget) error { return nil }
	}
	if e.newID == nil {
		e.newID = NewWidgetID
	}
	return e
}

// Grid returns the canvas the engine validates against.
func (e *Engine) Grid() Grid {
	return e.grid
}

// LoadInitial installs the fetched layout. A missing record installs the seed
// layout. A record with an empty list stays empty. An invalid persisted list
// is rejected and the engine keeps its current state.
func (e *Engine) LoadInitial(layout Layout, found bool) error {
	widgets := SeedWidgets()
	if found {
		widgets = cloneWidgets(layout.Widgets)
		if widgets == nil {
			widgets = []Widget{}
		}
		if err := e.grid.ValidateLayout(widgets); err != nil {
			return err
		}
	}
	e.mu.Lock()
	e.widgets = widgets
	e.mu.Unlock()
	return nil
}

// Widgets returns a deep copy of the current list.
func (e *Engine) Widgets() []Widget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneWidgets(e.widgets)
}

// Widget returns a copy of the widget with id.
func (e *Engine) Widget(id string) (Widget, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return Widget{}, false
	}
	return e.widgets[idx].Clone(), true
}

// Add places a new widget of kind at the first free rectangle of its default size.
func (e *Engine) Add(ctx context.Context, kind WidgetKind, config *WidgetConfig) (Widget, error) {
	size := DefaultWidgetSize
	if e.catalog != nil {
		def, ok := e.catalog.Definition(kind)
		if !ok {
			return Widget{}, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, kind)
		}
		size = def.SizeOrDefault()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.grid.FindAvailablePosition(e.widgets, size)
	if !ok {
		return Widget{}, ErrGridFull
	}
	widget := Widget{ID: e.newID(), Type: kind, Position: pos}
	if config != nil {
		cfg := *config
		widget.Config = &cfg
	}
	next := append(cloneWidgets(e.widgets), widget)
	return widget.Clone(), e.commit(ctx, next)
}

// Remove deletes the widget with id.
func (e *Engine) Remove(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	next := make([]Widget, 0, len(e.widgets)-1)
	next = append(next, e.widgets[:idx]...)
	next = append(next, e.widgets[idx+1:]...)
	return e.commit(ctx, cloneWidgets(next))
}

// Relocate converts a pixel drag into whole cells, clamps the result to the
// grid, and commits it when it does not collide. A delta that rounds to zero
// cells is a no-op and nothing is saved. The returned bool reports whether the
// layout changed.
func (e *Engine) Relocate(ctx context.Context, id string, delta PixelDelta, cell CellSize) (Widget, bool, error) {
	if cell.Width <= 0 || cell.Height <= 0 {
		return Widget{}, false, ErrInvalidCellSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return Widget{}, false, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	current := e.widgets[idx]
	dx := roundHalfUp(delta.X / cell.Width)
	dy := roundHalfUp(delta.Y / cell.Height)
	if dx == 0 && dy == 0 {
		return current.Clone(), false, nil
	}

	candidate := current.Clone()
	candidate.Position.X = clamp(current.Position.X+dx, 0, e.grid.Cols-current.Position.W)
	candidate.Position.Y = clamp(current.Position.Y+dy, 0, e.grid.Rows-current.Position.H)
	if candidate.Position == current.Position {
		return current.Clone(), false, nil
	}
	return e.replace(ctx, idx, candidate)
}

// MoveTo places the widget at an absolute cell, clamped to the grid.
func (e *Engine) MoveTo(ctx context.Context, id string, x, y int) (Widget, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return Widget{}, false, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	current := e.widgets[idx]
	candidate := current.Clone()
	candidate.Position.X = clamp(x, 0, e.grid.Cols-current.Position.W)
	candidate.Position.Y = clamp(y, 0, e.grid.Rows-current.Position.H)
	if candidate.Position == current.Position {
		return current.Clone(), false, nil
	}
	return e.replace(ctx, idx, candidate)
}

// Resize clamps the requested span to the grid and shifts the origin so the
// widget stays in bounds, then commits it when it does not collide.
func (e *Engine) Resize(ctx context.Context, id string, w, h int) (Widget, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return Widget{}, false, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	current := e.widgets[idx]
	candidate := current.Clone()
	candidate.Position.W = clamp(w, 1, e.grid.Cols)
	candidate.Position.H = clamp(h, 1, e.grid.Rows)
	candidate.Position.X = min(current.Position.X, e.grid.Cols-candidate.Position.W)
	candidate.Position.Y = min(current.Position.Y, e.grid.Rows-candidate.Position.H)
	if candidate.Position == current.Position {
		return current.Clone(), false, nil
	}
	return e.replace(ctx, idx, candidate)
}

// UpdateConfig replaces the widget configuration. A nil config clears it.
func (e *Engine) UpdateConfig(ctx context.Context, id string, config *WidgetConfig) (Widget, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOfWidget(e.widgets, id)
	if idx < 0 {
		return Widget{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	candidate := e.widgets[idx].Clone()
	candidate.Config = nil
	if config != nil && (config.StartDate != "" || config.EndDate != "") {
		cfg := *config
		candidate.Config = &cfg
	}
	next := cloneWidgets(e.widgets)
	next[idx] = candidate
	return candidate.Clone(), e.commit(ctx, next)
}

// Replace swaps the whole list after validating it.
func (e *Engine) Replace(ctx context.Context, widgets []Widget) error {
	next := cloneWidgets(widgets)
	if next == nil {
		next = []Widget{}
	}
	if err := e.grid.ValidateLayout(next); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, next)
}

// Reset reinstalls the seed layout and saves it.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, SeedWidgets())
}

func (e *Engine) replace(ctx context.Context, idx int, candidate Widget) (Widget, bool, error) {
	if !e.grid.IsValidPosition(candidate, e.widgets) {
		return e.widgets[idx].Clone(), false, ErrCollision
	}
	next := cloneWidgets(e.widgets)
	next[idx] = candidate
	return candidate.Clone(), true, e.commit(ctx, next)
}

// commit installs next and saves it. Callers hold e.mu. The in-memory list
// keeps the mutation when the save fails.
func (e *Engine) commit(ctx context.Context, next []Widget) error {
	e.widgets = next
	if err := e.save(ctx, cloneWidgets(next)); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewWidgetID returns an id of the form widget-<unix ms>-<9 char suffix>.
func NewWidgetID() string {
	return newWidgetIDAt(time.Now())
}

func newWidgetIDAt(now time.Time) string {
	suffix := make([]byte, 9)
	base := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			suffix[i] = idAlphabet[now.UnixNano()%int64(len(idAlphabet))]
			continue
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("widget-%d-%s", now.UnixMilli(), suffix)
}

// roundHalfUp rounds halves toward positive infinity, so a half-cell drag
// snaps the same way in both directions.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
