package musiclib

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFindsAlbumDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "daft-punk_discovery", "01.mp3"))
	writeFile(t, filepath.Join(root, "daft-punk_discovery", "02.MP3"))
	writeFile(t, filepath.Join(root, "empty-album", "notes.txt"))
	writeFile(t, filepath.Join(root, "zebra", "track.mp3"))
	writeFile(t, filepath.Join(root, "loose.mp3"))

	dirs, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 album dirs, got %d: %+v", len(dirs), dirs)
	}
	if dirs[0].Name != "daft-punk_discovery" || dirs[1].Name != "zebra" {
		t.Fatalf("unexpected order: %+v", dirs)
	}
	if dirs[0].TrackCount != 2 {
		t.Fatalf("expected 2 tracks (case-insensitive ext), got %d", dirs[0].TrackCount)
	}
	if dirs[0].Title != "Daft Punk Discovery" {
		t.Fatalf("unexpected title: %q", dirs[0].Title)
	}
}

func TestScanMissingRootIsEmpty(t *testing.T) {
	dirs, err := Scan(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if dirs != nil {
		t.Fatalf("expected empty library, got %+v", dirs)
	}
}

func TestDisplayTitleCollapsesSeparators(t *testing.T) {
	if got := DisplayTitle("the__white--album"); got != "The White Album" {
		t.Fatalf("unexpected title: %q", got)
	}
}
