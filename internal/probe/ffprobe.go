package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// Duration returns the container duration, falling back to the longest
// audio stream when the container does not report one.
func (r Result) Duration() (time.Duration, error) {
	if d, err := parseSeconds(r.Format.Duration); err == nil {
		return d, nil
	}
	var (
		longest time.Duration
		found   bool
	)
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		d, err := parseSeconds(stream.Duration)
		if err != nil {
			continue
		}
		if !found || d > longest {
			longest, found = d, true
		}
	}
	if !found {
		return 0, fmt.Errorf("no duration reported")
	}
	return longest, nil
}

// FFprobe measures durations from ffprobe's container metadata.
type FFprobe struct {
	binary string
	cmd    commandRunner
}

// FFprobeOption configures an FFprobe.
type FFprobeOption func(*FFprobe)

// WithFFprobeCommandRunner sets the command runner (for testing).
func WithFFprobeCommandRunner(r commandRunner) FFprobeOption {
	return func(p *FFprobe) { p.cmd = r }
}

// NewFFprobe creates an FFprobe using the given ffprobe binary.
func NewFFprobe(binary string, opts ...FFprobeOption) (*FFprobe, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, fmt.Errorf("ffprobe binary path cannot be empty")
	}
	p := &FFprobe{binary: binary, cmd: osCommandRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *FFprobe) Inspect(ctx context.Context, path string) (Result, error) {
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := p.cmd.CombinedOutput(ctx, p.binary, args)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Probe returns the duration of the audio in path.
func (p *FFprobe) Probe(ctx context.Context, path string) (time.Duration, error) {
	result, err := p.Inspect(ctx, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("probe %s: %w", path, ctxErr)
	}
	if err != nil {
		return 0, decodeError(path, "%v", err)
	}
	if result.AudioStreamCount() == 0 {
		return 0, decodeError(path, "no audio stream")
	}
	d, err := result.Duration()
	if err != nil {
		return 0, decodeError(path, "%v", err)
	}
	return d, nil
}
