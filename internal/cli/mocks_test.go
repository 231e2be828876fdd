package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/merge"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context) (string, error)
	ResolveProbeFunc func(ctx context.Context, ffmpegPath string) (string, error)

	mu                sync.Mutex
	resolveCalls      int
	checkVersionCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) ResolveProbe(ctx context.Context, ffmpegPath string) (string, error) {
	if m.ResolveProbeFunc != nil {
		return m.ResolveProbeFunc(ctx, ffmpegPath)
	}
	return "/usr/bin/ffprobe", nil
}

func (m *mockFFmpegResolver) CheckVersion(_ context.Context, _ string, _ *slog.Logger) {
	m.mu.Lock()
	m.checkVersionCalls++
	m.mu.Unlock()
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock EngineFactory + Engine
// ---------------------------------------------------------------------------

type mockEngineFactory struct {
	engine     *mockEngine
	ffmpegPath string
}

func (f *mockEngineFactory) NewEngine(ffmpegPath string, _ *slog.Logger) merge.Engine {
	f.ffmpegPath = ffmpegPath
	return f.engine
}

// mockEngine writes each invocation's output file instead of running ffmpeg.
type mockEngine struct {
	RunFunc func(ctx context.Context, inv ffmpeg.Invocation) error
	calls   []ffmpeg.Invocation
}

func (e *mockEngine) Run(ctx context.Context, inv ffmpeg.Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	e.calls = append(e.calls, inv)
	if e.RunFunc != nil {
		return e.RunFunc(ctx, inv)
	}
	switch v := inv.(type) {
	case ffmpeg.ConcatInvocation:
		return os.WriteFile(v.Output, []byte("merged"), 0o644)
	case ffmpeg.RemuxInvocation:
		return os.WriteFile(v.Output, []byte("chaptered"), 0o644)
	}
	return fmt.Errorf("unexpected invocation %T", inv)
}

// ---------------------------------------------------------------------------
// Mock ProberFactory + Prober
// ---------------------------------------------------------------------------

type mockProberFactory struct {
	prober      *mockProber
	ffprobePath string
	calls       int
}

func (f *mockProberFactory) NewProber(ffprobePath, _ string) (probe.Prober, error) {
	f.calls++
	f.ffprobePath = ffprobePath
	return f.prober, nil
}

// mockProber returns durations keyed by file name, one second by default.
type mockProber struct {
	durations map[string]time.Duration
	errs      map[string]error
}

func (p *mockProber) Probe(_ context.Context, path string) (time.Duration, error) {
	name := filepath.Base(path)
	if err, ok := p.errs[name]; ok {
		return 0, err
	}
	if d, ok := p.durations[name]; ok {
		return d, nil
	}
	return time.Second, nil
}
