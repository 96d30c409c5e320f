package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrGridFull is returned by Add when no free rectangle of the widget size exists.
	ErrGridFull = errors.New("dashboard: no space available for a new widget")
	// ErrCollision is returned when a relocate/resize candidate overlaps another widget.
	ErrCollision = errors.New("dashboard: widget would overlap another widget")
	// ErrWidgetNotFound is returned when the widget id is not part of the layout.
	ErrWidgetNotFound = errors.New("dashboard: widget not found")
	// ErrUnknownWidgetKind is returned when adding a kind the catalog does not know.
	ErrUnknownWidgetKind = errors.New("dashboard: unknown widget type")
	// ErrInvalidLayout is returned when a widget list violates the grid invariants.
	ErrInvalidLayout = errors.New("dashboard: invalid layout")
	// ErrInvalidConfig is returned when a widget configuration fails validation.
	ErrInvalidConfig = errors.New("dashboard: invalid widget configuration")
	// ErrStackedMode is returned for drag/resize requests issued from the stacked view.
	ErrStackedMode = errors.New("dashboard: layout editing is disabled in stacked mode")
	// ErrInvalidCellSize is returned when a drag is resolved against a non-positive cell size.
	ErrInvalidCellSize = errors.New("dashboard: cell size must be positive")
	// ErrDragInProgress is returned when a drag starts while another widget is active.
	ErrDragInProgress = errors.New("dashboard: another widget is being dragged")
	// ErrNoActiveDrag is returned when a drag is moved or ended without being started.
	ErrNoActiveDrag = errors.New("dashboard: no active drag")
	// ErrNoRelocator is returned when a drag that moved is ended without an engine.
	ErrNoRelocator = errors.New("dashboard: drag ended without a relocator")

	// ErrMissingViewer is returned when a request carries no authenticated user.
	ErrMissingViewer = errors.New("dashboard: viewer context missing user id")
	// ErrNoProvider is returned when widget content is requested for a kind without a provider.
	ErrNoProvider = errors.New("dashboard: no content provider for widget type")

	errMissingViewer = ErrMissingViewer
)

func invalidLayoutf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLayout, fmt.Sprintf(format, args...))
}

// PersistenceError reports a failed save. The in-memory layout keeps the
// mutation that triggered the save.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("dashboard: save layout: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError reports a failed layout fetch. It is never treated as "no layout".
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dashboard: load layout: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
