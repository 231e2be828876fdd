package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/logging"
	"github.com/alnah/go-audiobook/internal/merge"
	"github.com/alnah/go-audiobook/internal/probe"
)

// mergeOptions holds the merge command flags.
type mergeOptions struct {
	output     string
	bitrate    string
	codec      string
	extensions string
	force      bool
	lock       bool
}

// MergeCmd creates the merge command.
// The env parameter provides injectable dependencies for testing.
func MergeCmd(env *Env) *cobra.Command {
	var opts mergeOptions

	cmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "Merge chapter files into one chaptered audiobook",
		Long: `Merge every audio file in a directory into a single chaptered audiobook.

Files are ordered naturally by name (ch2 before ch10), each file becomes one
chapter titled after its file name, and the result is written next to the
inputs (default: audiobook.m4b). The chapter metadata document (chapters.txt)
is kept; temporary files are removed on success.

MP3 files are used by default; when a directory has none, M4A files are used
instead. Requires ffmpeg (FFMPEG_PATH or PATH). ffprobe is used for durations
when available.`,
		Example: `  audiobook merge ~/Audiobooks/Dune
  audiobook merge . -o "Dune.m4b" --bitrate 96k
  audiobook merge ./book --force --lock`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file name, created inside <dir> (default: audiobook.m4b)")
	cmd.Flags().StringVar(&opts.bitrate, "bitrate", "", "Audio bitrate for the merged file (default: 64k)")
	cmd.Flags().StringVar(&opts.codec, "codec", "", "Audio encoder for the merged file (default: aac)")
	cmd.Flags().StringVar(&opts.extensions, "ext", "", "Comma-separated input extensions (default: mp3)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing output file")
	cmd.Flags().BoolVar(&opts.lock, "lock", false, "Refuse to run while another merge holds the directory")

	return cmd
}

// runMerge executes the merge pipeline.
// Validation order: directory -> config -> flags -> ffmpeg -> ffprobe
func runMerge(ctx context.Context, env *Env, dir string, opts mergeOptions) error {
	// === VALIDATION (fail-fast) ===

	dir, err := checkDir(dir)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(env)
	if err != nil {
		return err
	}

	mcfg, err := buildMergeConfig(cfg, opts)
	if err != nil {
		return err
	}

	// === SETUP ===

	prober, ffmpegPath, err := resolveTools(ctx, env, logger)
	if err != nil {
		return err
	}
	engine := env.EngineFactory.NewEngine(ffmpegPath, logging.NewComponentLogger(logger, "ffmpeg"))

	merger, err := merge.New(mcfg, engine, prober, merge.WithLogger(logger))
	if err != nil {
		return err
	}

	// === MERGE ===

	start := env.Now()
	res, err := merger.Run(ctx, dir)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		logger.Warn("cleanup incomplete", logging.Error(w))
	}
	attrs := []any{
		slog.Int("chapters", len(res.Chapters)),
		slog.String("elapsed", format.DurationHuman(env.Now().Sub(start))),
	}
	if info, statErr := os.Stat(res.Output); statErr == nil {
		attrs = append(attrs, slog.String("size", format.Size(info.Size())))
	}
	logger.Info("done", attrs...)

	fmt.Fprintln(env.Stdout, res.Output)
	return nil
}

// checkDir expands ~ and verifies dir is an existing directory.
func checkDir(dir string) (string, error) {
	dir = config.ExpandPath(dir)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return dir, nil
}

// buildMergeConfig layers defaults, the user config, and flags, in that order.
func buildMergeConfig(cfg config.Config, opts mergeOptions) (merge.Config, error) {
	mcfg := merge.DefaultConfig()

	if cfg.OutputName != "" {
		mcfg.OutputName = cfg.OutputName
	}
	if cfg.Bitrate != "" {
		mcfg.Bitrate = cfg.Bitrate
	}
	if cfg.Codec != "" {
		mcfg.Codec = cfg.Codec
	}
	if len(cfg.Extensions) > 0 {
		mcfg.Extensions = cfg.Extensions
	}
	if len(cfg.FallbackExtensions) > 0 {
		mcfg.FallbackExtensions = cfg.FallbackExtensions
	}

	if opts.output != "" {
		if !config.IsBareName(opts.output) {
			return merge.Config{}, fmt.Errorf("%w: %q must be a file name, it is always created inside the audiobook directory",
				ErrInvalidOutput, opts.output)
		}
		mcfg.OutputName = opts.output
	}
	if opts.bitrate != "" {
		mcfg.Bitrate = opts.bitrate
	}
	if opts.codec != "" {
		mcfg.Codec = opts.codec
	}
	if opts.extensions != "" {
		exts, err := config.ParseExtensions(opts.extensions)
		if err != nil {
			return merge.Config{}, fmt.Errorf("%w: --ext: %v", ErrInvalidFlag, err)
		}
		mcfg.Extensions = exts
	}
	mcfg.Overwrite = opts.force
	mcfg.Lock = opts.lock

	if err := mcfg.Validate(); err != nil {
		return merge.Config{}, err
	}
	return mcfg, nil
}

// resolveTools finds ffmpeg (required) and ffprobe (optional) and returns
// the duration prober to use.
func resolveTools(ctx context.Context, env *Env, logger *slog.Logger) (probe.Prober, string, error) {
	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return nil, "", err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath, logger)

	ffprobePath, err := env.FFmpegResolver.ResolveProbe(ctx, ffmpegPath)
	if err != nil {
		logger.Info("ffprobe not found, measuring durations by decoding with ffmpeg",
			logging.Error(err))
		ffprobePath = ""
	}
	logger.Debug("resolved tools",
		slog.String("ffmpeg", ffmpegPath),
		slog.String("ffprobe", ffprobePath))

	prober, err := env.ProberFactory.NewProber(ffprobePath, ffmpegPath)
	if err != nil {
		return nil, "", err
	}
	return prober, ffmpegPath, nil
}
