package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the per-project manifest looked up in the book
// directory or named explicitly with --manifest.
const ManifestFileName = "cast.yaml"

// ErrManifestInvalid wraps manifest validation failures.
var ErrManifestInvalid = errors.New("invalid manifest")

// Manifest is the per-project description of a book and where its podcast
// gets published. Everything except the book directory is optional.
type Manifest struct {
	Book    BookMeta    `yaml:"book"`
	Feed    FeedMeta    `yaml:"feed"`
	Publish PublishMeta `yaml:"publish"`
}

// BookMeta identifies the source document.
type BookMeta struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Dir    string `yaml:"dir" validate:"required"`
}

// FeedMeta carries the RSS channel fields.
type FeedMeta struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link" validate:"omitempty,url"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	Image       string `yaml:"image" validate:"omitempty,url"`
	BaseURL     string `yaml:"base_url" validate:"omitempty,url"`
}

// PublishMeta selects and configures the publish backend.
type PublishMeta struct {
	Backend string `yaml:"backend" validate:"omitempty,oneof=local s3"`
	Dir     string `yaml:"dir"`      // local backend target
	BaseURL string `yaml:"base_url"` // public prefix for local backend
	S3      S3Meta `yaml:"s3"`
}

// S3Meta configures the s3 backend.
type S3Meta struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Prefix        string `yaml:"prefix"`
	Endpoint      string `yaml:"endpoint" validate:"omitempty,url"`
	PublicBaseURL string `yaml:"public_base_url" validate:"omitempty,url"`
}

var validate = validator.New()

// LoadManifest reads and validates a cast.yaml manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path names the user's own manifest
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	if m.Publish.Backend == "local" && m.Publish.Dir == "" {
		return nil, fmt.Errorf("%w: publish.dir is required for the local backend", ErrManifestInvalid)
	}
	if m.Publish.Backend == "s3" && (m.Publish.S3.Bucket == "" || m.Publish.S3.Region == "") {
		return nil, fmt.Errorf("%w: publish.s3.bucket and publish.s3.region are required", ErrManifestInvalid)
	}

	return &m, nil
}
