package cli

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/alnah/go-audiobook/internal/config"
)

func TestNewEnv_Defaults(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	if env.Stdout != os.Stdout || env.Stderr != os.Stderr {
		t.Error("default writers should be os.Stdout and os.Stderr")
	}
	if env.Getenv == nil || env.Now == nil || env.IsTerminal == nil || env.NewRunID == nil {
		t.Fatal("default functions must be set")
	}
	if env.FFmpegResolver == nil || env.ConfigLoader == nil || env.EngineFactory == nil || env.ProberFactory == nil {
		t.Fatal("default factories must be set")
	}
	if a, b := env.NewRunID(), env.NewRunID(); a == "" || a == b {
		t.Errorf("run ids should be unique, got %q and %q", a, b)
	}
}

func TestNewEnv_Options(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var out, errOut bytes.Buffer
	mocks := newTestMocks()

	env := NewEnv(
		WithStdout(&out),
		WithStderr(&errOut),
		WithNow(func() time.Time { return fixed }),
		WithRunID(func() string { return "fixed" }),
		WithConfigLoader(mocks.configLoader),
	)

	if env.Stdout != &out || env.Stderr != &errOut {
		t.Error("writers not applied")
	}
	if !env.Now().Equal(fixed) {
		t.Errorf("Now() = %v, want %v", env.Now(), fixed)
	}
	if env.NewRunID() != "fixed" {
		t.Errorf("NewRunID() = %q", env.NewRunID())
	}
	if env.ConfigLoader != mocks.configLoader {
		t.Error("config loader not applied")
	}
}

func TestNewEnv_ConfigLoaderReadsInjectedEnv(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"XDG_CONFIG_HOME":  t.TempDir(),
		config.EnvBitrate:  "96k",
		config.EnvLogLevel: "debug",
	}
	env := NewEnv(WithGetenv(func(name string) string { return vars[name] }))

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Bitrate != "96k" || cfg.LogLevel != "debug" {
		t.Errorf("Load() = %+v, want bitrate and log level from injected env", cfg)
	}
}

func TestIsTerminal_NonFileWriter(t *testing.T) {
	t.Parallel()

	if isTerminal(&bytes.Buffer{}) {
		t.Error("isTerminal(buffer) = true, want false")
	}
}

func TestDefaultProberFactory(t *testing.T) {
	t.Parallel()

	f := defaultProberFactory{}
	if _, err := f.NewProber("/usr/bin/ffprobe", "/usr/bin/ffmpeg"); err != nil {
		t.Errorf("NewProber(ffprobe) unexpected error: %v", err)
	}
	if _, err := f.NewProber("", "/usr/bin/ffmpeg"); err != nil {
		t.Errorf("NewProber(decoder) unexpected error: %v", err)
	}
	if _, err := f.NewProber("", ""); err == nil {
		t.Error("NewProber with no binaries should fail")
	}
}
