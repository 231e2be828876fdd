package chapters_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-audiobook/internal/chapters"
	"github.com/alnah/go-audiobook/internal/probe"
)

// fakeProber returns durations keyed by path and records the probe order.
type fakeProber struct {
	durations map[string]time.Duration
	fail      map[string]bool
	calls     []string
}

func (f *fakeProber) Probe(_ context.Context, path string) (time.Duration, error) {
	f.calls = append(f.calls, path)
	if f.fail[path] {
		return 0, fmt.Errorf("%w: %s: invalid data", probe.ErrDecode, path)
	}
	return f.durations[path], nil
}

func sources(paths ...string) []chapters.Source {
	out := make([]chapters.Source, len(paths))
	for i, p := range paths {
		out[i] = chapters.NewSource(p)
	}
	return out
}

// ---------------------------------------------------------------------------
// TitleFromPath
// ---------------------------------------------------------------------------

func TestTitleFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"/books/ch1.mp3", "ch1"},
		{"/books/01 - Prologue.mp3", "01 - Prologue"},
		{"/books/part.one.m4a", "part.one"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := chapters.TitleFromPath(tt.input); got != tt.want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// BuildTimeline
// ---------------------------------------------------------------------------

func TestBuildTimeline_Contiguous(t *testing.T) {
	t.Parallel()

	p := &fakeProber{durations: map[string]time.Duration{
		"/b/t0.mp3": 1000 * time.Millisecond,
		"/b/t1.mp3": 2500 * time.Millisecond,
		"/b/t2.mp3": 500 * time.Millisecond,
	}}

	probed, records, err := chapters.BuildTimeline(context.Background(),
		sources("/b/t0.mp3", "/b/t1.mp3", "/b/t2.mp3"), p)
	if err != nil {
		t.Fatalf("BuildTimeline() unexpected error: %v", err)
	}

	want := []chapters.Record{
		{Start: 0, End: 1000, Title: "t0"},
		{Start: 1000, End: 3500, Title: "t1"},
		{Start: 3500, End: 4000, Title: "t2"},
	}
	if !slices.Equal(records, want) {
		t.Errorf("BuildTimeline() records = %+v, want %+v", records, want)
	}
	if err := chapters.Contiguous(records); err != nil {
		t.Errorf("Contiguous() = %v, want nil", err)
	}
	if got := chapters.Total(records); got != 4*time.Second {
		t.Errorf("Total() = %v, want 4s", got)
	}
	if probed[1].Duration != 2500*time.Millisecond {
		t.Errorf("probed[1].Duration = %v, want 2.5s", probed[1].Duration)
	}
	if !slices.Equal(p.calls, []string{"/b/t0.mp3", "/b/t1.mp3", "/b/t2.mp3"}) {
		t.Errorf("probe order = %q, want input order", p.calls)
	}
}

func TestBuildTimeline_TruncatesToMilliseconds(t *testing.T) {
	t.Parallel()

	p := &fakeProber{durations: map[string]time.Duration{
		"/b/a.mp3": 1500*time.Millisecond + 999*time.Microsecond,
		"/b/b.mp3": 10 * time.Millisecond,
	}}

	_, records, err := chapters.BuildTimeline(context.Background(), sources("/b/a.mp3", "/b/b.mp3"), p)
	if err != nil {
		t.Fatalf("BuildTimeline() unexpected error: %v", err)
	}
	if records[0].End != 1500 || records[1].Start != 1500 || records[1].End != 1510 {
		t.Errorf("BuildTimeline() records = %+v, want [0,1500) [1500,1510)", records)
	}
}

func TestBuildTimeline_ZeroDuration(t *testing.T) {
	t.Parallel()

	p := &fakeProber{durations: map[string]time.Duration{"/b/a.mp3": 0, "/b/b.mp3": time.Second}}

	_, records, err := chapters.BuildTimeline(context.Background(), sources("/b/a.mp3", "/b/b.mp3"), p)
	if err != nil {
		t.Fatalf("BuildTimeline() unexpected error: %v", err)
	}
	if records[0].Start != 0 || records[0].End != 0 {
		t.Errorf("zero-duration record = %+v, want start == end == 0", records[0])
	}
	if err := chapters.Contiguous(records); err != nil {
		t.Errorf("Contiguous() = %v, want nil for degenerate chapter", err)
	}
}

func TestBuildTimeline_AbortsOnFirstProbeError(t *testing.T) {
	t.Parallel()

	p := &fakeProber{
		durations: map[string]time.Duration{"/b/a.mp3": time.Second, "/b/c.mp3": time.Second},
		fail:      map[string]bool{"/b/b.mp3": true},
	}

	probed, records, err := chapters.BuildTimeline(context.Background(),
		sources("/b/a.mp3", "/b/b.mp3", "/b/c.mp3"), p)
	if !errors.Is(err, probe.ErrDecode) {
		t.Fatalf("BuildTimeline() error = %v, want ErrDecode", err)
	}
	if probed != nil || records != nil {
		t.Errorf("BuildTimeline() returned partial results on error")
	}
	if len(p.calls) != 2 {
		t.Errorf("probed %d files, want to stop after the failing one", len(p.calls))
	}
	if !strings.Contains(err.Error(), "chapter 2") {
		t.Errorf("error = %q, want chapter position", err)
	}
}

func TestBuildTimeline_Empty(t *testing.T) {
	t.Parallel()

	_, records, err := chapters.BuildTimeline(context.Background(), nil, &fakeProber{})
	if err != nil {
		t.Fatalf("BuildTimeline(nil) unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("BuildTimeline(nil) = %v, want empty", records)
	}
}

func TestBuildTimeline_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := chapters.BuildTimeline(ctx, sources("/b/a.mp3"), &fakeProber{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("BuildTimeline() error = %v, want context.Canceled", err)
	}
}

func TestContiguous_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []chapters.Record
	}{
		{"nonzero start", []chapters.Record{{Start: 5, End: 10}}},
		{"gap", []chapters.Record{{Start: 0, End: 10}, {Start: 11, End: 20}}},
		{"overlap", []chapters.Record{{Start: 0, End: 10}, {Start: 9, End: 20}}},
		{"negative length", []chapters.Record{{Start: 0, End: 10}, {Start: 10, End: 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := chapters.Contiguous(tt.records); !errors.Is(err, chapters.ErrDiscontinuous) {
				t.Errorf("Contiguous() = %v, want ErrDiscontinuous", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RenderMetadata
// ---------------------------------------------------------------------------

func TestRenderMetadata_Layout(t *testing.T) {
	t.Parallel()

	records := []chapters.Record{
		{Start: 0, End: 1000, Title: "ch1"},
		{Start: 1000, End: 3500, Title: "ch2"},
	}

	want := ";FFMETADATA1\n" +
		"[CHAPTER]\nTIMEBASE=1/1000\nSTART=0\nEND=1000\ntitle=ch1\n" +
		"[CHAPTER]\nTIMEBASE=1/1000\nSTART=1000\nEND=3500\ntitle=ch2"

	if got := chapters.RenderMetadata(records); got != want {
		t.Errorf("RenderMetadata() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderMetadata_Idempotent(t *testing.T) {
	t.Parallel()

	records := []chapters.Record{{Start: 0, End: 42, Title: "Prologue"}, {Start: 42, End: 99, Title: "One"}}
	first := chapters.RenderMetadata(records)
	second := chapters.RenderMetadata(records)
	if first != second {
		t.Errorf("RenderMetadata() not byte-identical across calls")
	}
}

func TestRenderMetadata_ChapterCountMatchesRecords(t *testing.T) {
	t.Parallel()

	for n := 0; n < 20; n++ {
		records := make([]chapters.Record, n)
		for i := range records {
			records[i] = chapters.Record{Start: int64(i * 10), End: int64(i*10 + 10), Title: fmt.Sprintf("c%d", i)}
		}
		doc := chapters.RenderMetadata(records)
		if got := chapters.CountChapters(doc); got != n {
			t.Errorf("CountChapters(RenderMetadata(%d records)) = %d", n, got)
		}
		if !strings.HasPrefix(doc, chapters.MetadataHeader) {
			t.Errorf("document for %d records missing header", n)
		}
	}
}

func TestEscapeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"plain title", "plain title"},
		{"a=b", `a\=b`},
		{"x;y#z", `x\;y\#z`},
		{`back\slash`, `back\\slash`},
		{"two\nlines", "two\\\nlines"},
		{"Chapter 1: l'été", "Chapter 1: l'été"},
	}

	for _, tt := range tests {
		if got := chapters.EscapeValue(tt.input); got != tt.want {
			t.Errorf("EscapeValue(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
