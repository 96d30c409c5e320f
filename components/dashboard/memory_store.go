package dashboard

import (
	"context"
	"sync"
	"time"
)

// InMemoryLayoutStore is a concurrency-safe LayoutStore for tests, demos and
// the CLI. Records are keyed by user id.
type InMemoryLayoutStore struct {
	mu   sync.RWMutex
	now  func() time.Time
	data map[string]Layout
}

// NewInMemoryLayoutStore creates an empty store.
func NewInMemoryLayoutStore() *InMemoryLayoutStore {
	return &InMemoryLayoutStore{
		now:  time.Now,
		data: make(map[string]Layout),
	}
}

// LoadLayout returns the stored layout and whether a record exists.
func (s *InMemoryLayoutStore) LoadLayout(_ context.Context, viewer ViewerContext) (Layout, bool, error) {
	if viewer.UserID == "" {
		return Layout{}, false, errMissingViewer
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	layout, ok := s.data[viewer.UserID]
	if !ok {
		return Layout{}, false, nil
	}
	layout.Widgets = cloneWidgets(layout.Widgets)
	return layout, true, nil
}

// SaveLayout upserts the widget list for the viewer.
func (s *InMemoryLayoutStore) SaveLayout(_ context.Context, viewer ViewerContext, widgets []Widget) error {
	if viewer.UserID == "" {
		return errMissingViewer
	}
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	layout, ok := s.data[viewer.UserID]
	if !ok {
		created := now
		layout = Layout{ID: viewer.UserID, UserID: viewer.UserID, CreatedAt: &created}
	}
	layout.Widgets = cloneWidgets(widgets)
	if layout.Widgets == nil {
		layout.Widgets = []Widget{}
	}
	updated := now
	layout.UpdatedAt = &updated
	s.data[viewer.UserID] = layout
	return nil
}
