package probe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Pattern: Duration: 00:05:23.45
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	// Progress pattern: time=00:05:23.45
	progressRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// Decoder measures durations by decoding the audio stream with ffmpeg into
// the null muxer. Slower than FFprobe but needs nothing beyond ffmpeg.
type Decoder struct {
	ffmpegPath string
	cmd        commandRunner
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithDecoderCommandRunner sets the command runner (for testing).
func WithDecoderCommandRunner(r commandRunner) DecoderOption {
	return func(d *Decoder) { d.cmd = r }
}

// NewDecoder creates a Decoder using the given ffmpeg binary.
func NewDecoder(ffmpegPath string, opts ...DecoderOption) (*Decoder, error) {
	if strings.TrimSpace(ffmpegPath) == "" {
		return nil, fmt.Errorf("ffmpeg binary path cannot be empty")
	}
	d := &Decoder{ffmpegPath: ffmpegPath, cmd: osCommandRunner{}}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Probe decodes the audio in path and returns its duration.
func (d *Decoder) Probe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-nostdin", "-hide_banner",
		"-i", path,
		"-map", "0:a",
		"-f", "null", "-",
	}
	output, err := d.cmd.CombinedOutput(ctx, d.ffmpegPath, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("probe %s: %w", path, ctxErr)
	}
	if err != nil {
		return 0, decodeError(path, "ffmpeg: %v: %s", err, lastLine(string(output)))
	}
	dur, err := parseDecodeOutput(string(output))
	if err != nil {
		return 0, decodeError(path, "%v", err)
	}
	return dur, nil
}

// parseDecodeOutput extracts the decoded duration from ffmpeg stderr.
// The last progress stamp is the decoded length; the Duration header is the
// container's estimate and only used when no progress was printed.
func parseDecodeOutput(output string) (time.Duration, error) {
	if all := progressRe.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return parseTimeComponents(m[1], m[2], m[3], m[4])
	}
	return 0, fmt.Errorf("no duration found in ffmpeg output")
}

// parseTimeComponents converts HH, MM, SS and a fractional part of any
// precision into a duration truncated to milliseconds.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", hours)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q", minutes)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q", seconds)
	}
	ms, err := fractionMillis(fractional)
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// lastLine returns the last non-empty line of s, which is where ffmpeg
// prints the reason it gave up.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
