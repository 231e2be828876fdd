package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	// binaryName is the base name of the ffmpeg binary.
	binaryName = "ffmpeg"

	// probeBinaryName is the base name of the ffprobe binary.
	probeBinaryName = "ffprobe"

	// binaryExtWindows is the file extension for Windows executables.
	binaryExtWindows = ".exe"

	// minFFmpegMajorVersion is the minimum supported ffmpeg version.
	// Older builds lack -map_chapters handling for ffmetadata inputs.
	minFFmpegMajorVersion = 4
)

// Environment variables for custom binary paths.
const (
	envFFmpegPath  = "FFMPEG_PATH"
	envFFprobePath = "FFPROBE_PATH"
)

// ---------------------------------------------------------------------------
// Resolver - testable binary resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds the ffmpeg and ffprobe binaries. It never downloads anything.
type Resolver struct {
	stat fileStatter
	env  envProvider
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStatter sets the stat implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(res *Resolver) { res.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(res *Resolver) { res.env = e }
}

// WithPlatform sets the target OS (for testing cross-platform behavior).
func WithPlatform(goos string) ResolverOption {
	return func(res *Resolver) { res.goos = goos }
}

// NewResolver creates a Resolver with the given options.
// Uses production defaults if no options are provided.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. FFMPEG_PATH environment variable (error if set but invalid)
//  2. System PATH
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if envPath := r.env.Getenv(envFFmpegPath); envPath != "" {
		if err := r.checkExecutable(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q: %v", ErrNotFound, envFFmpegPath, envPath, err)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath(binaryName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w in PATH\n\n%s", ErrNotFound, r.manualInstallInstructions())
}

// ResolveProbe finds ffprobe using the following precedence:
//  1. FFPROBE_PATH environment variable (error if set but invalid)
//  2. Next to the resolved ffmpeg binary
//  3. System PATH
func (r *Resolver) ResolveProbe(_ context.Context, ffmpegPath string) (string, error) {
	if envPath := r.env.Getenv(envFFprobePath); envPath != "" {
		if err := r.checkExecutable(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q: %v", ErrProbeNotFound, envFFprobePath, envPath, err)
		}
		return envPath, nil
	}

	if ffmpegPath != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), r.executableName(probeBinaryName))
		if r.checkExecutable(sibling) == nil {
			return sibling, nil
		}
	}

	if path, err := r.env.LookPath(probeBinaryName); err == nil {
		return path, nil
	}

	return "", ErrProbeNotFound
}

// checkExecutable verifies path names a regular file the current user could run.
func (r *Resolver) checkExecutable(path string) error {
	info, err := r.stat.Stat(path)
	if err != nil {
		return fmt.Errorf("binary not found")
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory")
	}
	if r.goos != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("not executable (mode %s)", info.Mode().Perm())
	}
	return nil
}

// executableName appends the platform executable extension to name.
func (r *Resolver) executableName(name string) string {
	if r.goos == "windows" {
		return name + binaryExtWindows
	}
	return name
}

// manualInstallInstructions returns platform-specific instructions.
func (r *Resolver) manualInstallInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg.exe.`
	default:
		return `To install FFmpeg, download it from https://ffmpeg.org/download.html
Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	}
}

// ---------------------------------------------------------------------------
// Package-level functions - facade over a default Resolver
// ---------------------------------------------------------------------------

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// getDefaultResolver returns the lazily-initialized default resolver.
func getDefaultResolver() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// Resolve finds ffmpeg using the default resolver.
func Resolve(ctx context.Context) (string, error) {
	return getDefaultResolver().Resolve(ctx)
}

// ResolveProbe finds ffprobe using the default resolver.
func ResolveProbe(ctx context.Context, ffmpegPath string) (string, error) {
	return getDefaultResolver().ResolveProbe(ctx, ffmpegPath)
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	logger   *slog.Logger
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionLogger sets the logger for the version warning.
func WithVersionLogger(l *slog.Logger) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.logger = l }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check logs a warning when ffmpeg is older than the supported minimum.
// It never fails: returns the detected major version and whether it could be
// parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) (int, bool) {
	output, err := vc.executor.CombinedOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return 0, false
	}

	major, ok := parseMajorVersion(output)
	if !ok {
		return 0, false
	}
	if major < minFFmpegMajorVersion {
		vc.logger.Warn("ffmpeg is older than recommended",
			slog.Int("detected", major),
			slog.Int("minimum", minFFmpegMajorVersion))
	}
	return major, true
}

// parseMajorVersion reads the major version from the first line of
// "ffmpeg -version", e.g. "ffmpeg version 6.1.1" or "ffmpeg version n6.1".
func parseMajorVersion(output string) (int, bool) {
	line, _, _ := strings.Cut(output, "\n")
	if line == "" {
		return 0, false
	}
	var major int
	if _, err := fmt.Sscanf(line, "ffmpeg version %d", &major); err == nil {
		return major, true
	}
	if _, err := fmt.Sscanf(line, "ffmpeg version n%d", &major); err == nil {
		return major, true
	}
	return 0, false
}

// CheckVersion verifies ffmpeg version requirements with default settings.
func CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) {
	NewVersionChecker(WithVersionLogger(logger)).Check(ctx, ffmpegPath)
}
