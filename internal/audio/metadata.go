package audio

import (
	"os"

	"github.com/dhowden/tag"
)

// Meta holds best-effort container metadata for a file.
type Meta struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Format string `json:"format,omitempty"`
}

// ReadMeta probes container tags. It never fails: files without readable
// tags (plain WAV included) return nil.
func ReadMeta(path string) *Meta {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}

	meta := &Meta{
		Title:  m.Title(),
		Artist: m.Artist(),
		Format: string(m.Format()),
	}
	if meta.Title == "" && meta.Artist == "" && meta.Format == "" {
		return nil
	}
	return meta
}
