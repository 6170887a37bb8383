package ffmpeg

// Coverage Notes:
// - Executor tests use WithRun injection; no real ffmpeg required.
// - defaultRun is exercised once against a real shell command.
// - Resolve is tested via the FFMPEG_PATH override (t.Setenv).

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecutor_RunOutput_InjectedRun(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotArgs []string
	e := NewExecutor(WithRun(func(_ context.Context, path string, args []string) (string, error) {
		gotPath = path
		gotArgs = args
		return "Duration: 00:01:30.50", nil
	}))

	out, err := e.RunOutput(context.Background(), "/usr/bin/ffmpeg", []string{"-i", "x.mp3"})
	if err != nil {
		t.Fatalf("RunOutput() error: %v", err)
	}
	if out != "Duration: 00:01:30.50" {
		t.Errorf("output = %q", out)
	}
	if gotPath != "/usr/bin/ffmpeg" || len(gotArgs) != 2 {
		t.Errorf("run called with %q %v", gotPath, gotArgs)
	}
}

func TestExecutor_Run_WrapsFailure(t *testing.T) {
	t.Parallel()

	e := NewExecutor(WithRun(func(context.Context, string, []string) (string, error) {
		return "codec not found", errors.New("exit status 1")
	}))

	err := e.Run(context.Background(), "ffmpeg", nil)
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error = %v, want ErrFailed", err)
	}
	if !strings.Contains(err.Error(), "codec not found") {
		t.Errorf("error should carry stderr output: %v", err)
	}
}

func TestExecutor_Run_Success(t *testing.T) {
	t.Parallel()

	e := NewExecutor(WithRun(func(context.Context, string, []string) (string, error) {
		return "", nil
	}))

	if err := e.Run(context.Background(), "ffmpeg", nil); err != nil {
		t.Errorf("Run() unexpected error: %v", err)
	}
}

func TestDefaultRun_RealCommand(t *testing.T) {
	t.Parallel()

	// sh writes to stderr; defaultRun must capture it.
	out, err := defaultRun(context.Background(), "sh", []string{"-c", "echo probe >&2"})
	if err != nil {
		t.Fatalf("defaultRun() error: %v", err)
	}
	if !strings.Contains(out, "probe") {
		t.Errorf("stderr not captured: %q", out)
	}
}

func TestDefaultRun_NonexistentCommand(t *testing.T) {
	t.Parallel()

	_, err := defaultRun(context.Background(), "/nonexistent/ffmpeg", nil)
	if err == nil {
		t.Error("expected error for nonexistent command")
	}
}

func TestResolve_EnvOverride(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPath, fake)

	got, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != fake {
		t.Errorf("Resolve() = %q, want %q", got, fake)
	}
}

func TestResolve_EnvOverrideMissingFile(t *testing.T) {
	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "missing"))

	_, err := Resolve()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
