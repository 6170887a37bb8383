package cli_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tetsuyaohira/tech-talk-cast/internal/cli"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// Config command tests share the process environment via XDG_CONFIG_HOME,
// so none of them run in parallel.

func executeConfig(t *testing.T, te *testEnv, args ...string) error {
	t.Helper()
	cmd := cli.ConfigCmd(te.env)
	cmd.SetOut(te.env.Stdout)
	cmd.SetErr(te.env.Stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestConfigCmd_SetThenGet_RoundTrips(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	var stdout bytes.Buffer
	te.env.Stdout = &stdout

	if err := executeConfig(t, te, "set", "voice", "Daniel"); err != nil {
		t.Fatalf("config set: unexpected error: %v", err)
	}
	if err := executeConfig(t, te, "get", "voice"); err != nil {
		t.Fatalf("config get: unexpected error: %v", err)
	}
	if got := stdout.String(); got != "Daniel\n" {
		t.Errorf("config get output = %q, want %q", got, "Daniel\n")
	}
}

func TestConfigCmd_SetUnknownKey_ReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	if err := executeConfig(t, te, "set", "colour", "blue"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigCmd_SetInvalidProvider_ReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	err := executeConfig(t, te, "set", "provider", "anthropic")
	if !errors.Is(err, rewrite.ErrUnsupportedProvider) {
		t.Errorf("error = %v, want rewrite.ErrUnsupportedProvider", err)
	}
}

func TestConfigCmd_SetInvalidStyle_ReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	err := executeConfig(t, te, "set", "style", "operatic")
	if !errors.Is(err, template.ErrUnknown) {
		t.Errorf("error = %v, want template.ErrUnknown", err)
	}
}

func TestConfigCmd_SetOutputDir_StoresExpandedPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	var stdout bytes.Buffer
	te.env.Stdout = &stdout
	dir := filepath.Join(t.TempDir(), "casts")

	if err := executeConfig(t, te, "set", "output-dir", dir); err != nil {
		t.Fatalf("config set: unexpected error: %v", err)
	}
	if err := executeConfig(t, te, "get", "output-dir"); err != nil {
		t.Fatalf("config get: unexpected error: %v", err)
	}
	if got := stdout.String(); got != dir+"\n" {
		t.Errorf("config get output = %q, want %q", got, dir+"\n")
	}
}

func TestConfigCmd_List_ShowsRecognizedKeysFirst(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	var stdout bytes.Buffer
	te.env.Stdout = &stdout

	if err := executeConfig(t, te, "set", "rate", "170"); err != nil {
		t.Fatal(err)
	}
	if err := executeConfig(t, te, "set", "voice", "Daniel"); err != nil {
		t.Fatal(err)
	}
	if err := executeConfig(t, te, "list"); err != nil {
		t.Fatalf("config list: unexpected error: %v", err)
	}

	got := stdout.String()
	if !contains(got, "voice=Daniel\n") || !contains(got, "rate=170\n") {
		t.Errorf("config list output missing entries:\n%s", got)
	}
}

func TestConfigCmd_List_Empty_ShowsAvailableSettings(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	te := newTestEnv(t)
	var stdout bytes.Buffer
	te.env.Stdout = &stdout

	if err := executeConfig(t, te, "list"); err != nil {
		t.Fatalf("config list: unexpected error: %v", err)
	}
	if got := stdout.String(); !contains(got, "No configuration set.") || !contains(got, "output-dir") {
		t.Errorf("config list output = %q", got)
	}
}
