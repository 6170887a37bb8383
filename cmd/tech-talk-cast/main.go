package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tetsuyaohira/tech-talk-cast/internal/apierr"
	"github.com/tetsuyaohira/tech-talk-cast/internal/assemble"
	"github.com/tetsuyaohira/tech-talk-cast/internal/book"
	"github.com/tetsuyaohira/tech-talk-cast/internal/cli"
	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/ffmpeg"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/storage"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes, one band per failure class.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitRewrite    = 5
	ExitRender     = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "tech-talk-cast",
		Short:   "Narrate technical books into chaptered podcast episodes",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Subcommands.
	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.CombineCmd(env))
	rootCmd.AddCommand(cli.PublishCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3): missing tools or credentials.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, render.ErrSayNotFound) ||
		errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrDeepSeekKeyMissing) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4): bad input or configuration.
	if errors.Is(err, template.ErrUnknown) || errors.Is(err, rewrite.ErrUnsupportedProvider) ||
		errors.Is(err, book.ErrNoChapters) || errors.Is(err, book.ErrBadChapterFile) ||
		errors.Is(err, pipeline.ErrAllFiltered) || errors.Is(err, cli.ErrBookDirMissing) ||
		errors.Is(err, config.ErrManifestInvalid) || errors.Is(err, cli.ErrNoPublishBackend) {
		return ExitValidation
	}

	// Rewrite stage errors (ExitRewrite = 5): the LLM conversation failed.
	if errors.Is(err, rewrite.ErrRewriteFailed) || errors.Is(err, pipeline.ErrAllRewritesFailed) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) {
		return ExitRewrite
	}

	// Render and assembly errors (ExitRender = 6): synthesis, transcode,
	// combination, or upload failed.
	if errors.Is(err, render.ErrRenderFailed) || errors.Is(err, assemble.ErrAssemblyFailed) ||
		errors.Is(err, ffmpeg.ErrFailed) || errors.Is(err, storage.ErrPublishFailed) {
		return ExitRender
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
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
