package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/cli"
	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/interrupt"
	"github.com/alnah/go-audiobook/internal/merge"
	"github.com/alnah/go-audiobook/internal/probe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitDecode     = 5
	ExitEngine     = 6
	ExitFilesystem = 7
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the context, which kills a running ffmpeg.
	// A second one within two seconds exits immediately.
	guard, ctx := interrupt.Watch(context.Background())

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	err := rootCmd.ExecuteContext(ctx)
	guard.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(interruptedExitCode(err, guard.Interrupted()))
	}
}

// newRootCmd assembles the command tree around env.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "audiobook",
		Short:   "Merge audio chapter files into a chaptered audiobook",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&env.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVar(&env.LogFormat, "log-format", "",
		"Log format: console or json (default: console)")

	rootCmd.AddCommand(cli.MergeCmd(env))
	rootCmd.AddCommand(cli.ChaptersCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// interruptedExitCode reports ExitInterrupt for any failure that follows a
// Ctrl+C, since a killed ffmpeg surfaces as an engine error rather than a
// canceled context.
func interruptedExitCode(err error, interrupted bool) int {
	if err != nil && interrupted {
		return ExitInterrupt
	}
	return exitCode(err)
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, merge.ErrNoInput) || errors.Is(err, merge.ErrOutputExists) ||
		errors.Is(err, merge.ErrLocked) || errors.Is(err, merge.ErrInvalidConfig) ||
		errors.Is(err, cli.ErrDirNotFound) || errors.Is(err, cli.ErrNotDirectory) ||
		errors.Is(err, cli.ErrInvalidOutput) || errors.Is(err, config.ErrUnknownKey) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, ffmpeg.ErrInvalidInvocation) {
		return ExitValidation
	}

	// Decode errors (ExitDecode = 5).
	if errors.Is(err, probe.ErrDecode) {
		return ExitDecode
	}

	// Engine errors (ExitEngine = 6).
	if errors.Is(err, ffmpeg.ErrExecution) {
		return ExitEngine
	}

	// Filesystem errors (ExitFilesystem = 7).
	if errors.Is(err, merge.ErrFilesystem) {
		return ExitFilesystem
	}

	// Usage errors (ExitUsage = 2). Checked after the typed errors so that
	// ffmpeg output quoted inside an engine error never matches a pattern.
	if errors.Is(err, cli.ErrInvalidFlag) || isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
