package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/merge"
	"github.com/alnah/go-audiobook/internal/probe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout     io.Writer
	Stderr     io.Writer
	Getenv     func(string) string
	Now        func() time.Time
	IsTerminal func(w io.Writer) bool
	NewRunID   func() string

	// Logging flags, bound to the root command's persistent flags.
	// Empty values defer to the config file.
	LogLevel  string
	LogFormat string

	// Factories for domain objects
	FFmpegResolver FFmpegResolver
	ConfigLoader   ConfigLoader
	EngineFactory  EngineFactory
	ProberFactory  ProberFactory
}

// FFmpegResolver resolves the paths to the ffmpeg and ffprobe binaries.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	ResolveProbe(ctx context.Context, ffmpegPath string) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// EngineFactory creates the engine that runs ffmpeg invocations.
type EngineFactory interface {
	NewEngine(ffmpegPath string, logger *slog.Logger) merge.Engine
}

// ProberFactory creates duration probers. An empty ffprobePath selects the
// slower decode-based prober driven by ffmpeg.
type ProberFactory interface {
	NewProber(ffprobePath, ffmpegPath string) (probe.Prober, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithIsTerminal sets the terminal detector used for styling decisions.
func WithIsTerminal(fn func(w io.Writer) bool) EnvOption {
	return func(e *Env) {
		e.IsTerminal = fn
	}
}

// WithRunID sets the run identifier generator.
func WithRunID(fn func() string) EnvOption {
	return func(e *Env) {
		e.NewRunID = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithEngineFactory sets the engine factory.
func WithEngineFactory(f EngineFactory) EnvOption {
	return func(e *Env) {
		e.EngineFactory = f
	}
}

// WithProberFactory sets the prober factory.
func WithProberFactory(f ProberFactory) EnvOption {
	return func(e *Env) {
		e.ProberFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	env := &Env{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		Now:            time.Now,
		IsTerminal:     isTerminal,
		NewRunID:       uuid.NewString,
		FFmpegResolver: &defaultFFmpegResolver{},
		EngineFactory:  &defaultEngineFactory{},
		ProberFactory:  &defaultProberFactory{},
	}
	env.ConfigLoader = &defaultConfigLoader{env: env}
	return env
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) ResolveProbe(ctx context.Context, ffmpegPath string) (string, error) {
	return ffmpeg.ResolveProbe(ctx, ffmpegPath)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) {
	ffmpeg.CheckVersion(ctx, ffmpegPath, logger)
}

// defaultConfigLoader implements ConfigLoader using the config package.
// It reads the environment through env.Getenv, so WithGetenv applies.
type defaultConfigLoader struct {
	env *Env
}

func (l *defaultConfigLoader) Load() (config.Config, error) {
	return config.LoadEnv(l.env.Getenv)
}

// defaultEngineFactory implements EngineFactory using ffmpeg.Engine.
type defaultEngineFactory struct{}

func (defaultEngineFactory) NewEngine(ffmpegPath string, logger *slog.Logger) merge.Engine {
	return ffmpeg.NewEngine(ffmpegPath, ffmpeg.WithEngineLogger(logger))
}

// defaultProberFactory implements ProberFactory using the probe package.
type defaultProberFactory struct{}

func (defaultProberFactory) NewProber(ffprobePath, ffmpegPath string) (probe.Prober, error) {
	if ffprobePath != "" {
		p, err := probe.NewFFprobe(ffprobePath)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	d, err := probe.NewDecoder(ffmpegPath)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Compile-time interface verification.
var (
	_ FFmpegResolver = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader   = (*defaultConfigLoader)(nil)
	_ EngineFactory  = (*defaultEngineFactory)(nil)
	_ ProberFactory  = (*defaultProberFactory)(nil)
)
