package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Default encoding parameters for the merge stage.
const (
	DefaultCodec   = "aac"
	DefaultBitrate = "64k"
)

var (
	bitrateRe = regexp.MustCompile(`^[1-9][0-9]*[kKmM]?$`)
	codecRe   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// ValidBitrate reports whether s is a bitrate ffmpeg accepts for -b:a.
func ValidBitrate(s string) bool {
	return bitrateRe.MatchString(s)
}

// ValidCodec reports whether s looks like an encoder name rather than an option.
func ValidCodec(s string) bool {
	return codecRe.MatchString(s)
}

// Invocation is one ffmpeg command, validated before it runs.
// Args are handed to the process as an argv slice; no shell is involved.
type Invocation interface {
	Validate() error
	Args() []string
}

// Compile-time interface implementation checks.
var (
	_ Invocation = ConcatInvocation{}
	_ Invocation = RemuxInvocation{}
)

// baseArgs are shared by every invocation: no banner, no interactive stdin,
// errors only on stderr.
func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-v", "error"}
}

// ConcatInvocation joins the files named in a concat list into one audio
// file. Only audio streams are mapped, so embedded cover art in any input is
// dropped rather than copied.
type ConcatInvocation struct {
	ListPath string // Concat demuxer list document.
	Output   string // Intermediate audio file, overwritten if present.
	Codec    string // Audio encoder, DefaultCodec when empty.
	Bitrate  string // Target bitrate, DefaultBitrate when empty.
}

func (c ConcatInvocation) codec() string {
	if c.Codec == "" {
		return DefaultCodec
	}
	return c.Codec
}

func (c ConcatInvocation) bitrate() string {
	if c.Bitrate == "" {
		return DefaultBitrate
	}
	return c.Bitrate
}

// Validate rejects invocations ffmpeg would misinterpret.
func (c ConcatInvocation) Validate() error {
	if err := validatePath("concat list", c.ListPath); err != nil {
		return err
	}
	if err := validatePath("output", c.Output); err != nil {
		return err
	}
	if samePath(c.ListPath, c.Output) {
		return fmt.Errorf("%w: output %s is also the input", ErrInvalidInvocation, c.Output)
	}
	if !codecRe.MatchString(c.codec()) {
		return fmt.Errorf("%w: codec %q", ErrInvalidInvocation, c.codec())
	}
	if !bitrateRe.MatchString(c.bitrate()) {
		return fmt.Errorf("%w: bitrate %q (want e.g. 64k)", ErrInvalidInvocation, c.bitrate())
	}
	return nil
}

// Args returns the ffmpeg argument list.
func (c ConcatInvocation) Args() []string {
	return append(baseArgs(),
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", c.ListPath,
		"-map", "0:a",
		"-c:a", c.codec(),
		"-b:a", c.bitrate(),
		c.Output,
	)
}

// RemuxInvocation copies encoded audio into a new container together with
// the chapters and tags of an ffmetadata document, without re-encoding.
type RemuxInvocation struct {
	AudioPath    string // Merged audio.
	MetadataPath string // ffmetadata document.
	Output       string // Final container.
	Overwrite    bool   // Replace an existing output instead of failing.
}

// Validate rejects invocations ffmpeg would misinterpret.
func (r RemuxInvocation) Validate() error {
	if err := validatePath("audio", r.AudioPath); err != nil {
		return err
	}
	if err := validatePath("metadata", r.MetadataPath); err != nil {
		return err
	}
	if err := validatePath("output", r.Output); err != nil {
		return err
	}
	if samePath(r.Output, r.AudioPath) || samePath(r.Output, r.MetadataPath) {
		return fmt.Errorf("%w: output %s is also an input", ErrInvalidInvocation, r.Output)
	}
	return nil
}

// Args returns the ffmpeg argument list.
func (r RemuxInvocation) Args() []string {
	overwrite := "-n"
	if r.Overwrite {
		overwrite = "-y"
	}
	return append(baseArgs(),
		overwrite,
		"-i", r.AudioPath,
		"-i", r.MetadataPath,
		"-map", "0:a",
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-c", "copy",
		r.Output,
	)
}

// validatePath requires absolute paths: a relative name starting with "-"
// would be parsed as an option.
func validatePath(role, p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("%w: empty %s path", ErrInvalidInvocation, role)
	case strings.ContainsRune(p, 0):
		return fmt.Errorf("%w: %s path contains NUL", ErrInvalidInvocation, role)
	case !filepath.IsAbs(p):
		return fmt.Errorf("%w: %s path %q is not absolute", ErrInvalidInvocation, role, p)
	}
	return nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
