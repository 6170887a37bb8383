package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tetsuyaohira/tech-talk-cast/internal/storage"
)

// mockPutter records PutObject calls and their bodies.
type mockPutter struct {
	keys         []string
	contentTypes []string
	bodies       []string
	err          error
}

func (m *mockPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.keys = append(m.keys, *in.Key)
	m.contentTypes = append(m.contentTypes, *in.ContentType)
	m.bodies = append(m.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func newS3(t *testing.T, cfg storage.S3Config, putter *mockPutter) *storage.S3Publisher {
	t.Helper()
	p, err := storage.NewS3Publisher(context.Background(), cfg, storage.WithClient(putter))
	if err != nil {
		t.Fatalf("NewS3Publisher: %v", err)
	}
	return p
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"episode.mp3", "audio/mpeg"},
		{"audio/01_intro.MP3", "audio/mpeg"},
		{"feed.xml", "application/rss+xml"},
		{"text/01_intro.txt", "text/plain"},
		{"cover.jpg", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := storage.ContentType(tt.path); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLocalPublisher_Publish_WritesFileAndReturnsURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := storage.NewLocalPublisher(dir, "https://cdn.example.com/cast/")
	if err != nil {
		t.Fatalf("NewLocalPublisher: %v", err)
	}

	url, err := p.Publish(context.Background(), "audio/01_intro.mp3", strings.NewReader("MP3DATA"), "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/cast/audio/01_intro.mp3" {
		t.Errorf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audio", "01_intro.mp3"))
	if err != nil {
		t.Fatalf("published file missing: %v", err)
	}
	if string(data) != "MP3DATA" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalPublisher_Publish_NoBaseURL_ReturnsPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := storage.NewLocalPublisher(dir, "")
	if err != nil {
		t.Fatalf("NewLocalPublisher: %v", err)
	}

	url, err := p.Publish(context.Background(), "feed.xml", strings.NewReader("<rss/>"), "application/rss+xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != filepath.Join(dir, "feed.xml") {
		t.Errorf("url = %q, want local path", url)
	}
}

func TestLocalPublisher_Publish_CancelledContext_Fails(t *testing.T) {
	t.Parallel()

	p, err := storage.NewLocalPublisher(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalPublisher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Publish(ctx, "x.mp3", strings.NewReader("x"), "audio/mpeg"); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestS3Publisher_Publish_UploadsWithPrefixAndContentType(t *testing.T) {
	t.Parallel()

	putter := &mockPutter{}
	p := newS3(t, storage.S3Config{
		Bucket: "casts",
		Region: "eu-west-1",
		Prefix: "/tech-talk/",
	}, putter)

	url, err := p.Publish(context.Background(), "episode.mp3", strings.NewReader("MP3DATA"), "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(putter.keys) != 1 || putter.keys[0] != "tech-talk/episode.mp3" {
		t.Errorf("keys = %v", putter.keys)
	}
	if putter.contentTypes[0] != "audio/mpeg" {
		t.Errorf("content type = %q", putter.contentTypes[0])
	}
	if putter.bodies[0] != "MP3DATA" {
		t.Errorf("body = %q", putter.bodies[0])
	}
	if url != "https://casts.s3.eu-west-1.amazonaws.com/tech-talk/episode.mp3" {
		t.Errorf("url = %q", url)
	}
}

func TestS3Publisher_Publish_PublicBaseURL_Wins(t *testing.T) {
	t.Parallel()

	p := newS3(t, storage.S3Config{
		Bucket:        "casts",
		Region:        "eu-west-1",
		PublicBaseURL: "https://cdn.example.com/",
	}, &mockPutter{})

	url, err := p.Publish(context.Background(), "feed.xml", strings.NewReader("<rss/>"), "application/rss+xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/feed.xml" {
		t.Errorf("url = %q", url)
	}
}

func TestS3Publisher_Publish_UploadError_WrapsErrPublishFailed(t *testing.T) {
	t.Parallel()

	p := newS3(t, storage.S3Config{Bucket: "casts"}, &mockPutter{err: errors.New("access denied")})

	_, err := p.Publish(context.Background(), "episode.mp3", strings.NewReader("x"), "audio/mpeg")
	if !errors.Is(err, storage.ErrPublishFailed) {
		t.Errorf("want ErrPublishFailed, got %v", err)
	}
}

func TestPublishFile_SendsFileContentWithDetectedType(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(src, []byte("MP3DATA"), 0o600); err != nil {
		t.Fatal(err)
	}

	putter := &mockPutter{}
	p := newS3(t, storage.S3Config{Bucket: "casts", Region: "us-east-1"}, putter)

	url, err := storage.PublishFile(context.Background(), p, src, "audio/01.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if putter.bodies[0] != "MP3DATA" || putter.contentTypes[0] != "audio/mpeg" {
		t.Errorf("upload = %q %q", putter.bodies[0], putter.contentTypes[0])
	}
	if url == "" {
		t.Error("empty url")
	}
}

func TestPublishFile_MissingFile_Fails(t *testing.T) {
	t.Parallel()

	p := newS3(t, storage.S3Config{Bucket: "casts"}, &mockPutter{})

	_, err := storage.PublishFile(context.Background(), p, "does-not-exist.mp3", "x.mp3")
	if !errors.Is(err, storage.ErrPublishFailed) {
		t.Errorf("want ErrPublishFailed, got %v", err)
	}
}
