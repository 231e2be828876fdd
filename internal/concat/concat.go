// Package concat renders the input list document read by ffmpeg's concat
// demuxer.
package concat

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsafePath indicates a path that cannot be expressed in a concat list.
var ErrUnsafePath = errors.New("path cannot be written to concat list")

// quoteEscaper closes the quoted string, emits an escaped quote, and reopens it.
var quoteEscaper = strings.NewReplacer(`'`, `'\''`)

// Render returns one "file '<path>'" line per path, in the given order.
// Relative paths are made absolute. The demuxer joins streams strictly in
// list order, so callers must pass paths already sorted for playback.
func Render(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		line, err := Line(p)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Line renders a single concat list entry without its newline.
func Line(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	// The list format is line-oriented and has no escape for these.
	if strings.ContainsAny(path, "\n\r\x00") {
		return "", fmt.Errorf("%w: %q contains a line break or NUL", ErrUnsafePath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return "file '" + quoteEscaper.Replace(abs) + "'", nil
}
