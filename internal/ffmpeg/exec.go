package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// stderrTailLines is how much of ffmpeg's stderr is kept in errors.
const stderrTailLines = 20

// ---------------------------------------------------------------------------
// Executor - testable FFmpeg execution with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	runOutput   runOutputFn // stderr only, for transcoding runs
	runCombined runOutputFn // stdout and stderr, for queries like -version
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// WithRunCombined sets a custom combined-output function (for testing).
func WithRunCombined(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runCombined = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput:   defaultRunOutput,
		runCombined: defaultRunCombined,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CombinedOutput runs a short query such as -version and returns stdout and
// stderr together. Informational flags print to stdout, diagnostics to stderr.
func (e *Executor) CombinedOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runCombined(ctx, ffmpegPath, args)
}

// Run executes FFmpeg and blocks until it exits. There is no timeout: the
// only way to stop a running process is to cancel ctx.
//
// A non-zero exit is reported as ErrExecution with the tail of stderr; a
// binary that cannot be started is reported as ErrNotFound; cancellation
// returns the context error.
func (e *Executor) Run(ctx context.Context, ffmpegPath string, args []string) error {
	output, err := e.runOutput(ctx, ffmpegPath, args)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: exit status %d\nOutput: %s", ErrExecution, exitErr.ExitCode(), tail(output, stderrTailLines))
	}
	return fmt.Errorf("%w: cannot start %s: %v", ErrNotFound, ffmpegPath, err)
}

// defaultRunOutput is the production implementation.
// Returns stderr output even when the command fails, since the reason for a
// failure is only ever printed there.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- binary is resolved internally, args come from validated invocations
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// defaultRunCombined is the production implementation of runCombined.
func defaultRunCombined(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- binary is resolved internally, args are fixed query flags
	out, err := exec.CommandContext(ctx, ffmpegPath, args...).CombinedOutput()
	return string(out), err
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Engine - validated invocations bound to one binary
// ---------------------------------------------------------------------------

// Engine runs typed invocations against a resolved ffmpeg binary.
type Engine struct {
	path     string
	executor *Executor
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineExecutor sets the executor (for testing).
func WithEngineExecutor(e *Executor) EngineOption {
	return func(en *Engine) { en.executor = e }
}

// WithEngineLogger sets the logger used for command tracing.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(en *Engine) { en.logger = l }
}

// NewEngine creates an Engine for the ffmpeg binary at path.
func NewEngine(path string, opts ...EngineOption) *Engine {
	e := &Engine{
		path:     path,
		executor: getDefaultExecutor(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates inv and executes it, blocking until ffmpeg exits.
func (e *Engine) Run(ctx context.Context, inv Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	args := inv.Args()
	e.logger.Debug("running ffmpeg",
		slog.String("binary", e.path),
		slog.String("args", strings.Join(args, " ")))
	return e.executor.Run(ctx, e.path, args)
}

// ---------------------------------------------------------------------------
// Shared default Executor
// ---------------------------------------------------------------------------

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

// getDefaultExecutor returns the lazily-initialized default executor.
func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}
