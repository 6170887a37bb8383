// Package config loads user configuration. Defaults live in a key=value
// file under the user config directory; CAST_* environment variables fill
// anything the file leaves unset. Per-project book and publish metadata is
// a separate concern, see manifest.go.
package config

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// appDir is the directory name under the user config root.
const appDir = "tech-talk-cast"

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyVoice     = "voice"
	KeyRate      = "rate"
	KeyModel     = "model"
	KeyProvider  = "provider"
	KeyStyle     = "style"
	KeyPauseMs   = "pause-ms"
)

// Keys lists the recognized configuration keys.
func Keys() []string {
	return []string{KeyOutputDir, KeyVoice, KeyRate, KeyModel, KeyProvider, KeyStyle, KeyPauseMs}
}

// Config holds user configuration. File values win; environment variables
// are fallbacks for unset keys.
type Config struct {
	OutputDir string `env:"CAST_OUTPUT_DIR"`
	Voice     string `env:"CAST_VOICE"`
	Rate      int    `env:"CAST_RATE"`
	Model     string `env:"CAST_MODEL"`
	Provider  string `env:"CAST_PROVIDER"`
	Style     string `env:"CAST_STYLE"`
	PauseMs   int64  `env:"CAST_PAUSE_MS"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/tech-talk-cast.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// A missing file is not an error; an unreadable or malformed one is.
func Load(ctx context.Context) (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	if data, err := parseFile(p); err == nil {
		cfg.OutputDir = data[KeyOutputDir]
		cfg.Voice = data[KeyVoice]
		cfg.Model = data[KeyModel]
		cfg.Provider = data[KeyProvider]
		cfg.Style = data[KeyStyle]
		if v := data[KeyRate]; v != "" {
			if cfg.Rate, err = strconv.Atoi(v); err != nil {
				return cfg, fmt.Errorf("config %s=%q: not a number", KeyRate, v)
			}
		}
		if v := data[KeyPauseMs]; v != "" {
			if cfg.PauseMs, err = strconv.ParseInt(v, 10, 64); err != nil {
				return cfg, fmt.Errorf("config %s=%q: not a number", KeyPauseMs, v)
			}
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Environment fallbacks fill only what the file left unset.
	var env Config
	if err := envconfig.Process(ctx, &env); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = env.OutputDir
	}
	if cfg.Voice == "" {
		cfg.Voice = env.Voice
	}
	if cfg.Rate == 0 {
		cfg.Rate = env.Rate
	}
	if cfg.Model == "" {
		cfg.Model = env.Model
	}
	if cfg.Provider == "" {
		cfg.Provider = env.Provider
	}
	if cfg.Style == "" {
		cfg.Style = env.Style
	}
	if cfg.PauseMs == 0 {
		cfg.PauseMs = env.PauseMs
	}

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		data[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// KnownKey reports whether key is a recognized configuration key.
func KnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for key, value := range data {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ValidOutputDir checks if a directory path is valid for use as output-dir.
// Returns nil if valid, or an error describing the problem.
func ValidOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}

	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	// Writability is checked by creating and removing a probe file.
	testFile := filepath.Join(d, ".tech-talk-cast-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(testFile)
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = os.Remove(testFile)

	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path (exported for testing).
func Dir() (string, error) {
	return dir()
}

// ParseFile reads a key=value config file (exported for testing).
func ParseFile(p string) (map[string]string, error) {
	return parseFile(p)
}
