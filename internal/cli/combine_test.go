package cli_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tetsuyaohira/tech-talk-cast/internal/cli"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
)

func TestCombineCmd_RebuildsEpisodeWithoutSource(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.getenv = map[string]string{} // no API keys needed
	te.source.err = errors.New("source must not be consulted")

	outDir := t.TempDir()
	textDir := filepath.Join(outDir, pipeline.TextDirName)
	audioDir := filepath.Join(outDir, pipeline.AudioDirName)
	for _, d := range []string{textDir, audioDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(textDir, "01_intro.txt"), []byte("Narration."), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(audioDir, "01_intro.mp3"), []byte("MP3DATA"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := cli.CombineCmd(te.env)
	cmd.SetOut(te.env.Stdout)
	cmd.SetErr(te.env.Stderr)
	cmd.SetArgs([]string{"-o", outDir, "--pause-ms", "1500"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("combine: unexpected error: %v", err)
	}

	if te.assembler.combineCalls != 1 {
		t.Errorf("combine calls = %d, want 1", te.assembler.combineCalls)
	}
	if te.assembler.assembleCalls != 0 {
		t.Errorf("assemble calls = %d, want 0", te.assembler.assembleCalls)
	}
	if _, err := os.Stat(filepath.Join(outDir, pipeline.EpisodeFileName)); err != nil {
		t.Errorf("episode file not written: %v", err)
	}
	if len(te.rewriters.providers) != 0 {
		t.Error("rewriter factory called during combine")
	}
}
