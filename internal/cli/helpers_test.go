package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	engine         *mockEngineFactory
	prober         *mockProberFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		engine:         &mockEngineFactory{engine: &mockEngine{}},
		prober:         &mockProberFactory{prober: &mockProber{}},
	}
}

// testEnv creates an Env wired to mocks, writing to fresh buffers.
func testEnv(mocks *testMocks) (*Env, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(stderr),
		WithGetenv(func(string) string { return "" }),
		WithIsTerminal(func(io.Writer) bool { return false }),
		WithRunID(func() string { return "test-run" }),
		WithFFmpegResolver(mocks.ffmpegResolver),
		WithConfigLoader(mocks.configLoader),
		WithEngineFactory(mocks.engine),
		WithProberFactory(mocks.prober),
	)
	return env, stdout, stderr
}

// makeBookDir creates a temp directory holding the named files.
func makeBookDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("audio"), 0o644); err != nil {
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
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}
