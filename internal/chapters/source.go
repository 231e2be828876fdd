package chapters

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-audiobook/internal/format"
)

// Source is one chapter input file.
type Source struct {
	Path     string        // Absolute path to the audio file.
	Title    string        // File name without extension.
	Duration time.Duration // Playable duration, whole milliseconds. Zero until probed.
}

// NewSource creates a Source for path with its title derived from the file name.
func NewSource(path string) Source {
	return Source{Path: path, Title: TitleFromPath(path)}
}

// TitleFromPath returns the file name of path without its final extension.
// Example: "/books/01 - Prologue.mp3" -> "01 - Prologue"
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// String returns a human-readable representation for logging.
func (s Source) String() string {
	return fmt.Sprintf("%s (%s)", s.Title, format.Duration(s.Duration))
}
