package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "layouts.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreDistinguishesMissingFromEmpty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	viewer := dashboard.ViewerContext{UserID: "alice"}

	_, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveLayout(ctx, viewer, nil))
	layout, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, layout.Widgets)
	assert.Empty(t, layout.Widgets)
	assert.NotEmpty(t, layout.ID)
	assert.NotNil(t, layout.CreatedAt)
}

func TestStoreRoundTripsWidgetsAndKeepsID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	viewer := dashboard.ViewerContext{UserID: "bob"}

	require.NoError(t, store.SaveLayout(ctx, viewer, dashboard.SeedWidgets()))
	first, _, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)

	widgets := append(dashboard.SeedWidgets(), dashboard.Widget{
		ID:       "widget-1",
		Type:     dashboard.KindExpenseBreakdown,
		Position: dashboard.WidgetPosition{X: 0, Y: 1, W: 2, H: 2},
		Config:   &dashboard.WidgetConfig{StartDate: "2024-01-01", EndDate: "2024-01-31"},
	})
	require.NoError(t, store.SaveLayout(ctx, viewer, widgets))
	second, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, widgets, second.Widgets)
}

func TestOpenInMemoryDatabase(t *testing.T) {
	store, err := Open(":memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	viewer := dashboard.ViewerContext{UserID: "memory-user"}
	_, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.False(t, found)

	widgets := []dashboard.Widget{{ID: "w1", Type: dashboard.KindTotalBalance, Position: dashboard.WidgetPosition{X: 0, Y: 0, W: 2, H: 1}}}
	require.NoError(t, store.SaveLayout(ctx, viewer, widgets))
	layout, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, layout.Widgets, 1)
	assert.Equal(t, "w1", layout.Widgets[0].ID)
}
