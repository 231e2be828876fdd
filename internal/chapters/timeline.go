package chapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ErrDiscontinuous indicates a timeline with a gap, an overlap, or a
// negative-length chapter.
var ErrDiscontinuous = errors.New("chapter timeline is not contiguous")

// Record is one chapter of the merged audio, in milliseconds.
type Record struct {
	Start int64
	End   int64
	Title string
}

// Length returns the chapter duration.
func (r Record) Length() time.Duration {
	return time.Duration(r.End-r.Start) * time.Millisecond
}

// String returns a human-readable representation for logging.
func (r Record) String() string {
	return fmt.Sprintf("%s: %s-%s",
		r.Title,
		format.Duration(time.Duration(r.Start)*time.Millisecond),
		format.Duration(time.Duration(r.End)*time.Millisecond))
}

// BuildTimeline probes each source in order and emits one record per source,
// each starting where the previous one ended. The first probe failure aborts
// the build: skipping a file would shift every later chapter boundary.
// The returned sources carry their probed durations.
func BuildTimeline(ctx context.Context, sources []Source, p probe.Prober) ([]Source, []Record, error) {
	probed := make([]Source, len(sources))
	records := make([]Record, 0, len(sources))
	var cursor int64

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		d, err := p.Probe(ctx, src.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("chapter %d (%s): %w", i+1, src.Title, err)
		}
		if d < 0 {
			return nil, nil, fmt.Errorf("chapter %d (%s): %w: negative duration %v",
				i+1, src.Title, probe.ErrDecode, d)
		}

		ms := d.Milliseconds()
		src.Duration = time.Duration(ms) * time.Millisecond
		probed[i] = src

		records = append(records, Record{Start: cursor, End: cursor + ms, Title: src.Title})
		cursor += ms
	}

	return probed, records, nil
}

// Total returns the end offset of the last record, the full timeline length.
func Total(records []Record) time.Duration {
	if len(records) == 0 {
		return 0
	}
	return time.Duration(records[len(records)-1].End) * time.Millisecond
}

// Contiguous verifies that records start at zero, never go backwards, and
// leave no gap or overlap between neighbours.
func Contiguous(records []Record) error {
	for i, r := range records {
		if i == 0 && r.Start != 0 {
			return fmt.Errorf("%w: first chapter starts at %d", ErrDiscontinuous, r.Start)
		}
		if r.End < r.Start {
			return fmt.Errorf("%w: chapter %d ends before it starts", ErrDiscontinuous, i+1)
		}
		if i > 0 && records[i-1].End != r.Start {
			return fmt.Errorf("%w: chapter %d starts at %d, previous ended at %d",
				ErrDiscontinuous, i+1, r.Start, records[i-1].End)
		}
	}
	return nil
}
