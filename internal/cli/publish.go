package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
	"github.com/tetsuyaohira/tech-talk-cast/internal/storage"
)

// PublishOptions configures artifact publishing.
type PublishOptions struct {
	OutputDir    string
	ManifestPath string
}

// PublishCmd creates the publish command.
func PublishCmd(env *Env) *cobra.Command {
	var opts PublishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the episode, feed, and chapter audio to the configured backend",
		Long: `Upload a finished run's artifacts to the publish backend from cast.yaml.

The combined episode, the RSS feed (if generated), and the per-chapter
audio files are uploaded under stable keys, so re-publishing overwrites
in place.`,
		Example: `  tech-talk-cast publish -o ~/casts --manifest ./chapters/cast.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory holding the run's artifacts")
	cmd.Flags().StringVar(&opts.ManifestPath, "manifest", "", "path to cast.yaml")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

// runPublish uploads a run's artifacts per the manifest's publish section.
func runPublish(ctx context.Context, env *Env, opts PublishOptions) error {
	manifest, err := config.LoadManifest(opts.ManifestPath)
	if err != nil {
		return err
	}

	pub, err := newPublisher(ctx, env, manifest)
	if err != nil {
		return err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	opts.OutputDir = config.ExpandPath(opts.OutputDir)

	episodePath := filepath.Join(opts.OutputDir, pipeline.EpisodeFileName)
	if _, err := os.Stat(episodePath); err != nil {
		return fmt.Errorf("no episode to publish in %s: %w", opts.OutputDir, err)
	}

	uploads := []struct{ local, key string }{
		{episodePath, pipeline.EpisodeFileName},
	}
	if feedPath := filepath.Join(opts.OutputDir, pipeline.FeedFileName); fileExists(feedPath) {
		uploads = append(uploads, struct{ local, key string }{feedPath, pipeline.FeedFileName})
	}

	audioDir := filepath.Join(opts.OutputDir, pipeline.AudioDirName)
	if entries, err := os.ReadDir(audioDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".mp3" {
				continue
			}
			uploads = append(uploads, struct{ local, key string }{
				filepath.Join(audioDir, e.Name()),
				pipeline.AudioDirName + "/" + e.Name(),
			})
		}
	}

	for _, u := range uploads {
		url, err := storage.PublishFile(ctx, pub, u.local, u.key)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%s\n", url)
	}
	fmt.Fprintf(env.Stderr, "Published %d artifacts\n", len(uploads))
	return nil
}

// newPublisher builds the backend selected by the manifest.
func newPublisher(ctx context.Context, env *Env, m *config.Manifest) (storage.Publisher, error) {
	switch m.Publish.Backend {
	case "local":
		return env.Publishers.NewLocal(config.ExpandPath(m.Publish.Dir), m.Publish.BaseURL)
	case "s3":
		return env.Publishers.NewS3(ctx, storage.S3Config{
			Bucket:          m.Publish.S3.Bucket,
			Region:          m.Publish.S3.Region,
			Prefix:          m.Publish.S3.Prefix,
			Endpoint:        m.Publish.S3.Endpoint,
			AccessKeyID:     env.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: env.Getenv("AWS_SECRET_ACCESS_KEY"),
			PublicBaseURL:   m.Publish.S3.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("%w: set publish.backend in %s", ErrNoPublishBackend, config.ManifestFileName)
	}
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
