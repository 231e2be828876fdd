package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alnah/go-audiobook/internal/chapters"
	"github.com/alnah/go-audiobook/internal/concat"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/logging"
	"github.com/alnah/go-audiobook/internal/natsort"
	"github.com/alnah/go-audiobook/internal/probe"
)

// artifactPerm is the mode of the documents the run writes.
const artifactPerm fs.FileMode = 0o644

// Engine runs one ffmpeg invocation to completion.
type Engine interface {
	Run(ctx context.Context, inv ffmpeg.Invocation) error
}

// Compile-time check that the real engine satisfies Engine.
var _ Engine = (*ffmpeg.Engine)(nil)

// Result describes a successful run.
type Result struct {
	Output   string            // Final chaptered file.
	Metadata string            // Chapter metadata document, kept for inspection.
	Chapters []chapters.Record // Timeline embedded in Output.
	Warnings []error           // Cleanup failures. They never revoke success.
}

// Plan is the ordered input and timeline of a directory, computed without
// writing anything.
type Plan struct {
	Dir        string
	Extensions []string // Extension set that matched, primary or fallback.
	Sources    []chapters.Source
	Records    []chapters.Record
}

// Merger runs the merge pipeline. It holds no per-run state and may be
// reused, but runs must not overlap on the same directory unless
// Config.Lock is set.
type Merger struct {
	cfg    Config
	engine Engine
	prober probe.Prober
	fs     fileSystem
	logger *slog.Logger
	hooks  []StateHook
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger. The merger tags it with component=merge.
func WithLogger(l *slog.Logger) Option {
	return func(m *Merger) { m.logger = l }
}

// WithStateHook registers an observer of state transitions.
func WithStateHook(h StateHook) Option {
	return func(m *Merger) { m.hooks = append(m.hooks, h) }
}

// withFileSystem sets the filesystem implementation (for testing).
func withFileSystem(fsys fileSystem) Option {
	return func(m *Merger) { m.fs = fsys }
}

// New creates a Merger. The engine may be nil for a Merger used only for Plan.
func New(cfg Config, engine Engine, prober probe.Prober, opts ...Option) (*Merger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prober == nil {
		return nil, fmt.Errorf("%w: no duration prober", ErrInvalidConfig)
	}
	cfg.Extensions = lowerAll(cfg.Extensions)
	cfg.FallbackExtensions = lowerAll(cfg.FallbackExtensions)

	m := &Merger{
		cfg:    cfg,
		engine: engine,
		prober: prober,
		fs:     osFileSystem{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "merge")
	return m, nil
}

// run tracks the state of one Run call.
type run struct {
	m     *Merger
	state State
	start time.Time
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	level := slog.LevelDebug
	if to.Terminal() {
		level = slog.LevelInfo
	}
	r.m.logger.Log(context.Background(), level, "state transition",
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	for _, h := range r.m.hooks {
		h(from, to)
	}
}

// fail moves the run to Aborted and wraps err with the failing stage.
func (r *run) fail(path string, err error) error {
	stage := r.state
	r.transition(Aborted)
	r.m.logger.Error("merge aborted",
		slog.String(logging.FieldStage, stage.String()),
		slog.String(logging.FieldPath, path),
		logging.Error(err))
	return &StageError{Stage: stage, Path: path, Err: err}
}

// Run merges the audio files in dir into Config.OutputName inside dir.
//
// Nothing is written until scanning succeeds and every input has been
// probed. On failure the returned error is a *StageError, and any artifact
// already written stays on disk. Cancelling ctx stops the running ffmpeg.
func (m *Merger) Run(ctx context.Context, dir string) (Result, error) {
	r := &run{m: m, state: Scanning, start: time.Now()}

	if m.engine == nil {
		return Result{}, r.fail("", fmt.Errorf("%w: no engine", ErrInvalidConfig))
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, r.fail(dir, fmt.Errorf("%w: %v", ErrFilesystem, err))
	}

	// Scanning
	names, _, err := m.scanInputs(dir)
	if err != nil {
		return Result{}, r.fail(dir, err)
	}
	output := filepath.Join(dir, m.cfg.OutputName)
	if !m.cfg.Overwrite {
		if _, err := m.fs.Stat(output); err == nil {
			return Result{}, r.fail(output, fmt.Errorf("%w (use overwrite to replace it)", ErrOutputExists))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Result{}, r.fail(output, fmt.Errorf("%w: %v", ErrFilesystem, err))
		}
	}
	if m.cfg.Lock {
		lock, err := acquireLock(dir)
		if err != nil {
			return Result{}, r.fail(dir, err)
		}
		defer func() {
			if err := lock.release(); err != nil {
				m.logger.Warn("failed to release directory lock",
					slog.String(logging.FieldPath, lock.path),
					logging.Error(err))
			}
		}()
	}
	m.logger.Info("found input files",
		slog.String("dir", dir),
		slog.Int("files", len(names)))

	// Ordering
	r.transition(Ordering)
	sources := orderedSources(dir, names)

	// BuildingArtifacts
	r.transition(BuildingArtifacts)
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	list, err := concat.Render(paths)
	if err != nil {
		return Result{}, r.fail("", err)
	}
	progress := &progressProber{inner: m.prober, logger: m.logger, total: len(sources)}
	_, records, err := chapters.BuildTimeline(ctx, sources, progress)
	if err != nil {
		return Result{}, r.fail("", err)
	}
	if err := chapters.Contiguous(records); err != nil {
		return Result{}, r.fail("", err)
	}
	doc := chapters.RenderMetadata(records)

	listPath := filepath.Join(dir, m.cfg.ConcatListName)
	metaPath := filepath.Join(dir, m.cfg.MetadataName)
	if err := m.fs.WriteFile(listPath, []byte(list), artifactPerm); err != nil {
		return Result{}, r.fail(listPath, fmt.Errorf("%w: %v", ErrFilesystem, err))
	}
	if err := m.fs.WriteFile(metaPath, []byte(doc), artifactPerm); err != nil {
		return Result{}, r.fail(metaPath, fmt.Errorf("%w: %v", ErrFilesystem, err))
	}
	m.logger.Info("chapter timeline ready",
		slog.Int("chapters", len(records)),
		slog.Duration("total", chapters.Total(records)))

	// MergingAudio
	r.transition(MergingAudio)
	tempPath := filepath.Join(dir, m.cfg.IntermediateName)
	m.logger.Info("merging audio", slog.String(logging.FieldPath, tempPath))
	err = m.engine.Run(ctx, ffmpeg.ConcatInvocation{
		ListPath: listPath,
		Output:   tempPath,
		Codec:    m.cfg.Codec,
		Bitrate:  m.cfg.Bitrate,
	})
	if err != nil {
		return Result{}, r.fail(tempPath, err)
	}

	// EmbeddingChapters
	r.transition(EmbeddingChapters)
	m.logger.Info("embedding chapters", slog.String(logging.FieldPath, output))
	err = m.engine.Run(ctx, ffmpeg.RemuxInvocation{
		AudioPath:    tempPath,
		MetadataPath: metaPath,
		Output:       output,
		Overwrite:    m.cfg.Overwrite,
	})
	if err != nil {
		return Result{}, r.fail(output, err)
	}

	// CleaningUp
	r.transition(CleaningUp)
	warnings := m.cleanup(tempPath, listPath)

	r.transition(Done)
	m.logger.Info("audiobook created",
		slog.String("output", output),
		slog.Int("chapters", len(records)),
		slog.Duration("elapsed", time.Since(r.start).Round(time.Millisecond)))

	return Result{
		Output:   output,
		Metadata: metaPath,
		Chapters: records,
		Warnings: warnings,
	}, nil
}

// cleanup removes the intermediate files. Failures are reported, not fatal.
func (m *Merger) cleanup(paths ...string) []error {
	var warnings []error
	for _, p := range paths {
		if err := m.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w := &StageError{Stage: CleaningUp, Path: p, Err: fmt.Errorf("%w: %v", ErrFilesystem, err)}
			m.logger.Warn("failed to remove intermediate file",
				slog.String(logging.FieldPath, p),
				logging.Error(err))
			warnings = append(warnings, w)
		}
	}
	return warnings
}

// Plan scans, orders, and probes dir exactly as Run would, without writing
// anything or checking the output.
func (m *Merger) Plan(ctx context.Context, dir string) (Plan, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Plan{}, &StageError{Stage: Scanning, Path: dir, Err: fmt.Errorf("%w: %v", ErrFilesystem, err)}
	}
	names, exts, err := m.scanInputs(dir)
	if err != nil {
		return Plan{}, &StageError{Stage: Scanning, Path: dir, Err: err}
	}
	sources, records, err := chapters.BuildTimeline(ctx, orderedSources(dir, names), m.prober)
	if err != nil {
		return Plan{}, &StageError{Stage: BuildingArtifacts, Err: err}
	}
	return Plan{Dir: dir, Extensions: exts, Sources: sources, Records: records}, nil
}

// orderedSources sorts names naturally and turns them into sources under dir.
func orderedSources(dir string, names []string) []chapters.Source {
	ordered := natsort.Sorted(names)
	sources := make([]chapters.Source, len(ordered))
	for i, name := range ordered {
		sources[i] = chapters.NewSource(filepath.Join(dir, name))
	}
	return sources
}
