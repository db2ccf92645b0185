package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/soundops/audioqc/internal/audio"
)

// Discover lists the audio files directly inside dir, sorted by name.
// Subdirectories and unrecognized extensions are skipped.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !audio.SupportedFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
