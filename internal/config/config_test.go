package config

// Notes:
// - White-box testing (package config) to reach parseFile directly.
// - Uses t.TempDir() + t.Setenv("XDG_CONFIG_HOME") for I/O isolation.
// - Tests using t.Setenv are NOT parallel (incompatible with t.Parallel).

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeConfigFile creates a config file in the given XDG root.
func writeConfigFile(t *testing.T, xdgRoot, content string) {
	t.Helper()
	configDir := filepath.Join(xdgRoot, appDir)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func clearCastEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{"CAST_OUTPUT_DIR", "CAST_VOICE", "CAST_RATE", "CAST_MODEL", "CAST_PROVIDER", "CAST_STYLE", "CAST_PAUSE_MS"} {
		t.Setenv(v, "") // register restore, then truly unset
		_ = os.Unsetenv(v)
	}
}

func TestLoad_FileValues_Win(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	clearCastEnv(t)
	t.Setenv("CAST_VOICE", "Daniel")
	writeConfigFile(t, xdg, "output-dir=/casts\nvoice=Samantha\nrate=200\npause-ms=1500\n")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/casts" {
		t.Errorf("OutputDir = %q, want /casts", cfg.OutputDir)
	}
	if cfg.Voice != "Samantha" {
		t.Errorf("Voice = %q, file value should win over env", cfg.Voice)
	}
	if cfg.Rate != 200 {
		t.Errorf("Rate = %d, want 200", cfg.Rate)
	}
	if cfg.PauseMs != 1500 {
		t.Errorf("PauseMs = %d, want 1500", cfg.PauseMs)
	}
}

func TestLoad_EnvFillsUnsetKeys(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	clearCastEnv(t)
	t.Setenv("CAST_MODEL", "deepseek-chat")
	t.Setenv("CAST_RATE", "170")
	writeConfigFile(t, xdg, "voice=Samantha\n")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "deepseek-chat" {
		t.Errorf("Model = %q, want env fallback", cfg.Model)
	}
	if cfg.Rate != 170 {
		t.Errorf("Rate = %d, want 170", cfg.Rate)
	}
	if cfg.Voice != "Samantha" {
		t.Errorf("Voice = %q, want file value", cfg.Voice)
	}
}

func TestLoad_MissingFile_NotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearCastEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoad_NonNumericRate_Fails(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	clearCastEnv(t)
	writeConfigFile(t, xdg, "rate=fast\n")

	if _, err := Load(context.Background()); err == nil {
		t.Error("expected error for non-numeric rate")
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	t.Run("comments and blank lines ignored", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "config")
		content := "# defaults\n\nvoice=Samantha\n  rate = 180  \n"
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		data, err := parseFile(p)
		if err != nil {
			t.Fatalf("parseFile() error = %v", err)
		}
		if data["voice"] != "Samantha" || data["rate"] != "180" {
			t.Errorf("data = %v", data)
		}
	})

	t.Run("invalid syntax reports line", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "config")
		if err := os.WriteFile(p, []byte("voice=Samantha\nnot a pair\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := parseFile(p); err == nil {
			t.Error("expected error for invalid syntax")
		}
	})
}

func TestSaveGetList_Roundtrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(KeyVoice, "Daniel"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := Save(KeyRate, "190"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Overwrite keeps the other keys.
	if err := Save(KeyVoice, "Samantha"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Get(KeyVoice)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "Samantha" {
		t.Errorf("Get(voice) = %q, want Samantha", got)
	}

	all, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[KeyRate] != "190" {
		t.Errorf("List() = %v", all)
	}
}

func TestGet_MissingFile_ReturnsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := Get(KeyVoice)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

func TestKnownKey(t *testing.T) {
	t.Parallel()

	for _, k := range Keys() {
		if !KnownKey(k) {
			t.Errorf("KnownKey(%q) = false", k)
		}
	}
	if KnownKey("nope") {
		t.Error("KnownKey(nope) = true")
	}
}

func TestValidOutputDir(t *testing.T) {
	t.Parallel()

	t.Run("existing writable directory", func(t *testing.T) {
		t.Parallel()
		if err := ValidOutputDir(t.TempDir()); err != nil {
			t.Errorf("ValidOutputDir() error = %v", err)
		}
	})

	t.Run("missing directory is created", func(t *testing.T) {
		t.Parallel()
		d := filepath.Join(t.TempDir(), "new", "nested")
		if err := ValidOutputDir(d); err != nil {
			t.Errorf("ValidOutputDir() error = %v", err)
		}
		if _, err := os.Stat(d); err != nil {
			t.Errorf("directory not created: %v", err)
		}
	})

	t.Run("file path rejected", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := ValidOutputDir(p); err == nil {
			t.Error("expected error for file path")
		}
	})

	t.Run("empty rejected", func(t *testing.T) {
		t.Parallel()
		if err := ValidOutputDir(""); err == nil {
			t.Error("expected error for empty path")
		}
	})
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandPath("~/casts"); got != filepath.Join(home, "casts") {
		t.Errorf("ExpandPath(~/casts) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}
