package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
)

// EnvPath is the environment variable overriding ffmpeg discovery.
const EnvPath = "FFMPEG_PATH"

// Resolve locates the ffmpeg binary.
// Order: FFMPEG_PATH environment variable, then PATH lookup.
// Returns ErrNotFound if neither yields an executable.
func Resolve() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvPath, p, ErrNotFound)
		}
		return p, nil
	}

	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("install ffmpeg or set %s: %w", EnvPath, ErrNotFound)
	}
	return p, nil
}
