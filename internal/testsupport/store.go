package testsupport

import (
	"testing"

	"rfidmusic/internal/config"
	"rfidmusic/internal/store"
)

// MustOpenStore opens a mapping store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}
