package dashboard

import (
	"context"
	"math"
	"sync"
)

// DefaultActivationDistancePx is the pointer travel required before a press
// counts as a drag.
const DefaultActivationDistancePx = 8

// Relocator is the engine surface a drag resolves against.
type Relocator interface {
	Relocate(ctx context.Context, id string, delta PixelDelta, cell CellSize) (Widget, bool, error)
}

// DragTracker follows a single in-flight drag: start, pointer moves, then end
// or cancel. Only one widget may be dragged at a time.
type DragTracker struct {
	mu         sync.Mutex
	activation float64
	active     string
	delta      PixelDelta
}

// NewDragTracker returns a tracker with the given activation distance in pixels.
// Non-positive values use DefaultActivationDistancePx.
func NewDragTracker(activationPx float64) *DragTracker {
	if activationPx <= 0 {
		activationPx = DefaultActivationDistancePx
	}
	return &DragTracker{activation: activationPx}
}

// Start begins dragging widget id.
func (t *DragTracker) Start(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != "" {
		return ErrDragInProgress
	}
	t.active = id
	t.delta = PixelDelta{}
	return nil
}

// Active returns the id being dragged, if any.
func (t *DragTracker) Active() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.active != ""
}

// Move records the pointer displacement since Start.
func (t *DragTracker) Move(delta PixelDelta) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == "" {
		return ErrNoActiveDrag
	}
	t.delta = delta
	return nil
}

// End finishes the drag and resolves it against engine. Presses that never
// travelled past the activation distance do not relocate anything.
func (t *DragTracker) End(ctx context.Context, engine Relocator, cell CellSize) (Widget, bool, error) {
	t.mu.Lock()
	id, delta := t.active, t.delta
	t.active, t.delta = "", PixelDelta{}
	t.mu.Unlock()

	if id == "" {
		return Widget{}, false, ErrNoActiveDrag
	}
	if math.Hypot(delta.X, delta.Y) < t.activation {
		return Widget{}, false, nil
	}
	if engine == nil {
		return Widget{}, false, ErrNoRelocator
	}
	return engine.Relocate(ctx, id, delta, cell)
}

// Cancel discards the active drag without touching the layout.
func (t *DragTracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = ""
	t.delta = PixelDelta{}
}
