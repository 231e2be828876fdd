package merge

import (
	"fmt"
	"strings"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
)

// lockName is the advisory lock file created when Config.Lock is set.
const lockName = ".audiobook.lock"

// Config controls one merge run. Use DefaultConfig and override fields.
type Config struct {
	// OutputName is the final chaptered file, created in the target directory.
	OutputName string
	// Extensions are the accepted input extensions, lower-case with a leading dot.
	Extensions []string
	// FallbackExtensions are tried, with a warning, when no file matches Extensions.
	FallbackExtensions []string
	// Codec and Bitrate are passed to the concatenation encode.
	Codec   string
	Bitrate string
	// MetadataName is the chapter document. It is kept after success.
	MetadataName string
	// ConcatListName and IntermediateName are removed after success.
	ConcatListName   string
	IntermediateName string
	// Overwrite replaces an existing output instead of failing with ErrOutputExists.
	Overwrite bool
	// Lock serializes runs on the same directory through an advisory file lock.
	Lock bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		OutputName:         "audiobook.m4b",
		Extensions:         []string{".mp3"},
		FallbackExtensions: []string{".m4a"},
		Codec:              ffmpeg.DefaultCodec,
		Bitrate:            ffmpeg.DefaultBitrate,
		MetadataName:       "chapters.txt",
		ConcatListName:     "concat_list.txt",
		IntermediateName:   "temp.m4a",
	}
}

// Validate rejects configurations that could write outside the target
// directory, collide with each other, or confuse ffmpeg.
func (c Config) Validate() error {
	names := []struct{ field, name string }{
		{"output name", c.OutputName},
		{"metadata name", c.MetadataName},
		{"concat list name", c.ConcatListName},
		{"intermediate name", c.IntermediateName},
	}
	seen := make(map[string]string, len(names))
	for _, n := range names {
		if !config.IsBareName(n.name) {
			return fmt.Errorf("%w: %s must be a file name without directories, got %q", ErrInvalidConfig, n.field, n.name)
		}
		if n.name == lockName {
			return fmt.Errorf("%w: %s %q is reserved", ErrInvalidConfig, n.field, n.name)
		}
		key := strings.ToLower(n.name)
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s are both %q", ErrInvalidConfig, other, n.field, n.name)
		}
		seen[key] = n.field
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no input extensions", ErrInvalidConfig)
	}
	for _, ext := range append(append([]string(nil), c.Extensions...), c.FallbackExtensions...) {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidConfig, ext)
		}
	}

	if !ffmpeg.ValidCodec(c.Codec) {
		return fmt.Errorf("%w: codec %q", ErrInvalidConfig, c.Codec)
	}
	if !ffmpeg.ValidBitrate(c.Bitrate) {
		return fmt.Errorf("%w: bitrate %q (want e.g. 64k)", ErrInvalidConfig, c.Bitrate)
	}
	return nil
}

// artifactNames lists every file name the run itself may create. They are
// never picked up as inputs.
func (c Config) artifactNames() []string {
	return []string{c.OutputName, c.MetadataName, c.ConcatListName, c.IntermediateName, lockName}
}

func lowerAll(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.ToLower(e)
	}
	return out
}
