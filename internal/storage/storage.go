// Package storage publishes rendered episode artifacts. A Publisher takes a
// key and a byte stream and makes them retrievable at a public URL; local
// disk and S3 backends are provided.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrPublishFailed wraps any backend failure while publishing an artifact.
var ErrPublishFailed = errors.New("publish failed")

// Publisher makes one artifact retrievable under key and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
}

// ContentType maps an artifact path to its MIME type.
func ContentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return "audio/mpeg"
	case ".xml", ".rss":
		return "application/rss+xml"
	case ".txt", ".md":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// PublishFile publishes a local file under key.
func PublishFile(ctx context.Context, p Publisher, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrPublishFailed, localPath, err)
	}
	defer f.Close()

	return p.Publish(ctx, key, f, ContentType(localPath))
}
