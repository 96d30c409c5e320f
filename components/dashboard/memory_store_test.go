package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLayoutStore(t *testing.T) {
	store := NewInMemoryLayoutStore()
	ctx := context.Background()
	viewer := ViewerContext{UserID: "user-1"}

	_, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.False(t, found)

	widgets := SeedWidgets()
	require.NoError(t, store.SaveLayout(ctx, viewer, widgets))
	widgets[0].Position.X = 3

	layout, found, err := store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, SeedWidgets(), layout.Widgets)
	assert.Equal(t, "user-1", layout.UserID)
	require.NotNil(t, layout.CreatedAt)
	require.NotNil(t, layout.UpdatedAt)

	require.NoError(t, store.SaveLayout(ctx, viewer, nil))
	layout, found, err = store.LoadLayout(ctx, viewer)
	require.NoError(t, err)
	assert.True(t, found, "an emptied layout is still a record")
	assert.Empty(t, layout.Widgets)

	_, found, err = store.LoadLayout(ctx, ViewerContext{UserID: "user-2"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryLayoutStoreRequiresViewer(t *testing.T) {
	store := NewInMemoryLayoutStore()
	_, _, err := store.LoadLayout(context.Background(), ViewerContext{})
	assert.Error(t, err)
	assert.Error(t, store.SaveLayout(context.Background(), ViewerContext{}, nil))
}
