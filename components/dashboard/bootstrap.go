package dashboard

import (
	"context"
	"fmt"
)

// LoadCatalog builds a registry from the built-in catalog plus the given
// manifest files, in order.
func LoadCatalog(manifests ...string) (*Registry, error) {
	reg := NewRegistry()
	for _, path := range manifests {
		if path == "" {
			continue
		}
		if _, err := reg.LoadManifestFile(path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// SeedLayout writes the seed layout for viewer when the store has no record.
// It reports whether anything was written.
func SeedLayout(ctx context.Context, store LayoutStore, viewer ViewerContext) (bool, error) {
	if store == nil {
		return false, errMissingLayoutStore
	}
	_, found, err := store.LoadLayout(ctx, viewer)
	if err != nil {
		return false, &LoadError{Err: err}
	}
	if found {
		return false, nil
	}
	if err := store.SaveLayout(ctx, viewer, SeedWidgets()); err != nil {
		return false, fmt.Errorf("dashboard: seed layout for %s: %w", viewer.UserID, err)
	}
	return true, nil
}
