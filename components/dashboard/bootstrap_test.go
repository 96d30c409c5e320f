package dashboard

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogWithManifest(t *testing.T) {
	reg, err := LoadCatalog(filepath.Join("..", "..", "docs", "manifests", "finance-extras.yaml"))
	require.NoError(t, err)
	assert.True(t, reg.Has(KindTotalBalance))
	def, ok := reg.Definition("recent-transactions")
	require.True(t, ok)
	assert.Equal(t, Size{W: 2, H: 2}, def.DefaultSize)

	_, err = LoadCatalog("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestSeedLayoutOnlyWhenMissing(t *testing.T) {
	store := NewInMemoryLayoutStore()
	ctx := context.Background()

	wrote, err := SeedLayout(ctx, store, alice)
	require.NoError(t, err)
	assert.True(t, wrote)

	require.NoError(t, store.SaveLayout(ctx, alice, nil))
	wrote, err = SeedLayout(ctx, store, alice)
	require.NoError(t, err)
	assert.False(t, wrote)
	layout, _, _ := store.LoadLayout(ctx, alice)
	assert.Empty(t, layout.Widgets)
}
