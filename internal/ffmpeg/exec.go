// Package ffmpeg wraps ffmpeg process execution for transcoding, duration
// probing, and chapter-metadata muxing.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// runFn is the function type for running a command and capturing stderr.
type runFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs ffmpeg commands with injectable execution (for testing).
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRun sets a custom run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{run: defaultRun}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes ffmpeg and captures its stderr output.
// ffmpeg writes diagnostic output (probe info, Duration lines) to stderr,
// and often exits non-zero for valid operations (e.g. -f null probes), so
// the output is returned even on error and callers decide what matters.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.run(ctx, ffmpegPath, args)
}

// Run executes ffmpeg and fails on a non-zero exit, wrapping ErrFailed with
// the captured stderr. Use for operations whose exit code is authoritative:
// transcodes and muxes.
func (e *Executor) Run(ctx context.Context, ffmpegPath string, args []string) error {
	out, err := e.run(ctx, ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: %w\nOutput: %s", ErrFailed, err, out)
	}
	return nil
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// ---------------------------------------------------------------------------
// Package-level functions - facade over a shared default executor
// ---------------------------------------------------------------------------

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}

// RunOutput executes ffmpeg and captures its stderr output.
func RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return getDefaultExecutor().RunOutput(ctx, ffmpegPath, args)
}

// Run executes ffmpeg and fails on non-zero exit.
func Run(ctx context.Context, ffmpegPath string, args []string) error {
	return getDefaultExecutor().Run(ctx, ffmpegPath, args)
}
