package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalPublisher copies artifacts into a directory, typically a web root
// served by something else. URLs are formed by joining the configured base
// URL with the key; with no base URL a file path is returned.
type LocalPublisher struct {
	dir     string
	baseURL string
}

// NewLocalPublisher creates a LocalPublisher rooted at dir, creating the
// directory if needed.
func NewLocalPublisher(dir, baseURL string) (*LocalPublisher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create publish directory: %w", ErrPublishFailed, err)
	}
	return &LocalPublisher{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Publish writes the stream to dir/key and returns its URL.
func (p *LocalPublisher) Publish(ctx context.Context, key string, data io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(p.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrPublishFailed, key, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrPublishFailed, key, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("%w: write %s: %w", ErrPublishFailed, key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("%w: write %s: %w", ErrPublishFailed, key, err)
	}

	if p.baseURL == "" {
		return dest, nil
	}
	return p.baseURL + "/" + key, nil
}

var _ Publisher = (*LocalPublisher)(nil)
