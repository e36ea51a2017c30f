package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/cli"
	"github.com/alnah/vid2txt/internal/config"
	"github.com/alnah/vid2txt/internal/ffmpeg"
	"github.com/alnah/vid2txt/internal/interrupt"
	"github.com/alnah/vid2txt/internal/lang"
	"github.com/alnah/vid2txt/internal/logging"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitExtraction = 5
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels ctx, a second one within two seconds exits 130.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.NewEnv(
		cli.WithPartialDecision(handler.KeepPartial),
		cli.WithAbortCleanup(handler.OnAbort),
	)

	rootCmd := newRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCodeFor(err, handler.WasInterrupted()))
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vid2txt",
		Short:   "Batch-transcribe the speech of video files to text",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.CheckCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCodeFor maps err to an exit code. Any failure after a signal is
// reported as an interrupt, whatever error the canceled work surfaced.
func exitCodeFor(err error, interrupted bool) int {
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

	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) {
		return ExitSetup
	}

	if errors.Is(err, lang.ErrInvalid) || errors.Is(err, cli.ErrInvalidWindow) ||
		errors.Is(err, cli.ErrUnsupportedProvider) || errors.Is(err, cli.ErrInvalidValue) ||
		errors.Is(err, logging.ErrUnsupportedFormat) || errors.Is(err, config.ErrUnknownKey) {
		return ExitValidation
	}

	// ErrFilesFailed (--keep-going) stays general: the batch ran to the end.
	if errors.Is(err, audio.ErrExtractionFailed) && !errors.Is(err, cli.ErrFilesFailed) {
		return ExitExtraction
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
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
