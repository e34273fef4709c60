package testsupport

import (
	"testing"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/menu"
)

// NewStore returns an artifact store rooted at the config's build directory.
func NewStore(t testing.TB, cfg *config.Config) *artifacts.Store {
	t.Helper()

	store := artifacts.New(cfg.Paths.BuildDir)
	if err := store.EnsureLayout(); err != nil {
		t.Fatalf("store.EnsureLayout: %v", err)
	}
	return store
}

// MustLoadMenu loads the catalog from the config's menu directory.
func MustLoadMenu(t testing.TB, cfg *config.Config) *menu.Catalog {
	t.Helper()

	catalog, err := menu.Load(cfg.Paths.MenuDir)
	if err != nil {
		t.Fatalf("menu.Load: %v", err)
	}
	return catalog
}
