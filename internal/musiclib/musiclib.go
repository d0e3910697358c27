// Package musiclib discovers album directories under the configured music
// root.
package musiclib

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Directory describes one album directory containing playable tracks.
type Directory struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	TrackCount int    `json:"mp3_count"`
}

var titleCaser = cases.Title(language.English)

// Scan lists immediate subdirectories of root that contain at least one MP3
// file, sorted by name. A missing root is an empty library, not an error.
func Scan(root string) ([]Directory, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read music root: %w", err)
	}

	var dirs []Directory
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		count, err := countTracks(path)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		dirs = append(dirs, Directory{
			Name:       entry.Name(),
			Path:       path,
			Title:      DisplayTitle(entry.Name()),
			TrackCount: count,
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

func countTracks(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read album directory %q: %w", dir, err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			count++
		}
	}
	return count, nil
}

// DisplayTitle derives a human-readable album title from a directory name.
func DisplayTitle(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return titleCaser.String(cleaned)
}
