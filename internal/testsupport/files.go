package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteAlbum creates an album directory under root containing the named
// tracks. Track files are small placeholders; only their names matter.
func WriteAlbum(t testing.TB, root, album string, tracks ...string) string {
	t.Helper()

	dir := filepath.Join(root, album)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, track := range tracks {
		if err := os.WriteFile(filepath.Join(dir, track), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write track %s: %v", track, err)
		}
	}
	return dir
}
