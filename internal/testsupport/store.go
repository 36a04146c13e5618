package testsupport

import (
	"testing"

	"replaykit/internal/config"
	"replaykit/internal/library"
)

// MustOpenLibrary opens the library configured by cfg and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.Library.Path)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
