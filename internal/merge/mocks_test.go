package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// fakeEngine - writes the invocation's output instead of running ffmpeg
// ---------------------------------------------------------------------------

type fakeEngine struct {
	calls    []ffmpeg.Invocation
	lists    []string // concat list contents seen at concat time
	failStep string   // "concat" or "remux"
	failErr  error
}

func (e *fakeEngine) Run(ctx context.Context, inv ffmpeg.Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.calls = append(e.calls, inv)

	switch v := inv.(type) {
	case ffmpeg.ConcatInvocation:
		data, err := os.ReadFile(v.ListPath)
		if err != nil {
			return fmt.Errorf("%w: list missing: %v", ffmpeg.ErrExecution, err)
		}
		e.lists = append(e.lists, string(data))
		if e.failStep == "concat" {
			return e.failErr
		}
		return os.WriteFile(v.Output, []byte("merged audio"), 0o644)
	case ffmpeg.RemuxInvocation:
		if _, err := os.Stat(v.AudioPath); err != nil {
			return fmt.Errorf("%w: audio missing: %v", ffmpeg.ErrExecution, err)
		}
		if _, err := os.Stat(v.MetadataPath); err != nil {
			return fmt.Errorf("%w: metadata missing: %v", ffmpeg.ErrExecution, err)
		}
		if e.failStep == "remux" {
			return e.failErr
		}
		return os.WriteFile(v.Output, []byte("chaptered audio"), 0o644)
	default:
		return fmt.Errorf("unexpected invocation %T", inv)
	}
}

// ---------------------------------------------------------------------------
// fakeProber - durations keyed by file name
// ---------------------------------------------------------------------------

type fakeProber struct {
	durations map[string]time.Duration
	errs      map[string]error
	probed    []string
}

func (p *fakeProber) Probe(_ context.Context, path string) (time.Duration, error) {
	name := filepath.Base(path)
	p.probed = append(p.probed, name)
	if err, ok := p.errs[name]; ok {
		return 0, err
	}
	if d, ok := p.durations[name]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %s: no audio stream", probe.ErrDecode, path)
}

// cancelingProber cancels the run on its first call and reports the
// cancellation, as a probe killed mid-run does.
type cancelingProber struct {
	cancel context.CancelFunc
}

func (p *cancelingProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	p.cancel()
	return 0, fmt.Errorf("probe %s: %w", path, ctx.Err())
}

// ---------------------------------------------------------------------------
// failingRemoveFS - real filesystem whose Remove always fails
// ---------------------------------------------------------------------------

type failingRemoveFS struct {
	osFileSystem
}

func (failingRemoveFS) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: errors.New("device busy")}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// makeDir creates a temp directory holding the named files.
func makeDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("audio:"+n), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

// listDir returns the sorted entry names of dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// transitionRecorder collects state transitions from a StateHook.
type transitionRecorder struct {
	got []string
}

func (r *transitionRecorder) hook(from, to State) {
	r.got = append(r.got, from.String()+"->"+to.String())
}
