package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tetsuyaohira/tech-talk-cast/internal/assemble"
	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/feed"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// API key environment variables.
const (
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
)

// DefaultOutputDir is used when neither flag nor config names one.
const DefaultOutputDir = "cast-output"

// RunOptions configures one pipeline run.
type RunOptions struct {
	BookDir      string
	ManifestPath string
	OutputDir    string
	Voice        string
	Rate         int
	Bitrate      int
	Model        string
	ProviderName string
	StyleName    string
	PauseMs      int64
	SkipRewrite  bool
	SkipRender   bool
	SkipFeed     bool
	CombineOnly  bool
	Verbose      bool
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:   "run [book-dir]",
		Short: "Narrate a book directory into a chaptered podcast episode",
		Long: `Narrate a directory of ordered chapter files into a podcast.

Chapters are rewritten into a conversational register with an LLM,
synthesized with the platform speech tool, transcoded to MP3, and combined
into one episode with embedded chapter markers. Individual chapter audio
and narration texts are kept alongside the episode for inspection and
recovery.

The book directory may carry a cast.yaml manifest with book, feed, and
publish metadata.`,
		Example: `  tech-talk-cast run ./chapters
  tech-talk-cast run ./chapters -o ~/casts --voice Daniel --rate 170
  tech-talk-cast run ./chapters --skip-rewrite
  tech-talk-cast run --combine-only -o ~/casts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.BookDir = args[0]
			}
			return runRun(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory for artifacts (default from config, else "+DefaultOutputDir+")")
	cmd.Flags().StringVar(&opts.ManifestPath, "manifest", "", "path to cast.yaml (default <book-dir>/cast.yaml)")
	cmd.Flags().StringVar(&opts.Voice, "voice", "", "synthesis voice (default "+render.DefaultVoice+")")
	cmd.Flags().IntVar(&opts.Rate, "rate", 0, "speaking rate in words per minute")
	cmd.Flags().IntVar(&opts.Bitrate, "bitrate", 0, "MP3 bitrate in kbps")
	cmd.Flags().StringVar(&opts.Model, "model", "", "chat model for rewriting")
	cmd.Flags().StringVar(&opts.ProviderName, "provider", "", "rewrite provider: openai or deepseek")
	cmd.Flags().StringVar(&opts.StyleName, "style", "", "narration style: conversational, lecture, or summary")
	cmd.Flags().Int64Var(&opts.PauseMs, "pause-ms", 0, "silence between chapters in milliseconds")
	cmd.Flags().BoolVar(&opts.SkipRewrite, "skip-rewrite", false, "narrate the extracted text without LLM rewriting")
	cmd.Flags().BoolVar(&opts.SkipRender, "skip-render", false, "stop after writing narration texts")
	cmd.Flags().BoolVar(&opts.SkipFeed, "skip-feed", false, "do not generate the RSS feed")
	cmd.Flags().BoolVar(&opts.CombineOnly, "combine-only", false, "rebuild the episode from existing per-chapter artifacts")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose progress output")

	return cmd
}

// runRun wires configuration, tools, and stages, then executes the pipeline.
func runRun(ctx context.Context, env *Env, opts RunOptions) error {
	cfg, err := env.ConfigLoader.Load(ctx)
	if err != nil {
		return err
	}
	applyConfig(&opts, cfg)

	style := template.ConversationalName
	if opts.StyleName != "" {
		if style, err = template.ParseName(opts.StyleName); err != nil {
			return err
		}
	}
	provider, err := rewrite.ParseProvider(opts.ProviderName)
	if err != nil {
		return err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	opts.OutputDir = config.ExpandPath(opts.OutputDir)
	if err := config.ValidOutputDir(opts.OutputDir); err != nil {
		return err
	}

	manifest, err := loadManifest(opts)
	if err != nil {
		return err
	}
	if opts.BookDir == "" && manifest != nil && manifest.Book.Dir != "" {
		opts.BookDir = manifest.Book.Dir
		if !filepath.IsAbs(opts.BookDir) {
			opts.BookDir = filepath.Join(filepath.Dir(opts.ManifestPath), opts.BookDir)
		}
	}

	if !opts.CombineOnly {
		if opts.BookDir == "" {
			return fmt.Errorf("%w: pass a book directory", ErrBookDirMissing)
		}
		if info, err := os.Stat(opts.BookDir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrBookDirMissing, opts.BookDir)
		}
	}
	src := env.Sources.NewDirSource(opts.BookDir)

	var rewriter rewrite.Rewriter
	if !opts.SkipRewrite && !opts.CombineOnly {
		apiKey, err := resolveAPIKey(env, provider)
		if err != nil {
			return err
		}
		rwOpts := []rewrite.Option{rewrite.WithModel(firstNonEmpty(opts.Model, provider.DefaultModel()))}
		if opts.Verbose {
			rwOpts = append(rwOpts, rewrite.WithProgress(func(current, total int) {
				fmt.Fprintf(env.Stderr, "  chunk %d/%d\n", current, total)
			}))
		}
		rewriter = env.Rewriters.NewRewriter(provider, apiKey, rwOpts...)
	}

	var renderer Renderer
	var assembler pipeline.Assembler
	if !opts.SkipRender || opts.CombineOnly {
		sayPath, err := env.Tools.ResolveSay()
		if err != nil {
			return err
		}
		ffmpegPath, err := env.Tools.ResolveFFmpeg()
		if err != nil {
			return err
		}

		rdOpts := []render.RendererOption{render.WithStderr(env.Stderr)}
		if opts.Voice != "" {
			rdOpts = append(rdOpts, render.WithVoice(opts.Voice))
		}
		if opts.Rate > 0 {
			rdOpts = append(rdOpts, render.WithRate(opts.Rate))
		}
		if opts.Bitrate > 0 {
			rdOpts = append(rdOpts, render.WithBitrate(opts.Bitrate))
		}
		renderer = env.Renderers.NewRenderer(sayPath, ffmpegPath, rdOpts...)

		asmOpts := []assemble.AssemblerOption{assemble.WithStderr(env.Stderr)}
		if opts.PauseMs > 0 {
			asmOpts = append(asmOpts, assemble.WithPause(opts.PauseMs))
		}
		assembler = env.Assemblers.NewAssembler(renderer, ffmpegPath, asmOpts...)
	}

	pipeOpts := pipeline.Options{
		OutputDir:   opts.OutputDir,
		Style:       style,
		SkipRewrite: opts.SkipRewrite,
		SkipRender:  opts.SkipRender,
		SkipFeed:    opts.SkipFeed,
		CombineOnly: opts.CombineOnly,
		Verbose:     opts.Verbose,
	}
	orcOpts := []pipeline.OrchestratorOption{pipeline.WithStderr(env.Stderr)}
	if env.Now != nil {
		orcOpts = append(orcOpts, pipeline.WithNow(env.Now))
	}
	if spec := feedSpec(manifest); spec != nil {
		orcOpts = append(orcOpts, pipeline.WithFeed(*spec))
	}

	orc := pipeline.New(src, rewriter, renderer, assembler, pipeOpts, orcOpts...)
	sum, err := orc.Run(ctx)
	if sum != nil {
		sum.Report(env.Stderr)
	}
	return err
}

// applyConfig fills unset options from user configuration. Flags win.
func applyConfig(opts *RunOptions, cfg config.Config) {
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.OutputDir
	}
	if opts.Voice == "" {
		opts.Voice = cfg.Voice
	}
	if opts.Rate == 0 {
		opts.Rate = cfg.Rate
	}
	if opts.Model == "" {
		opts.Model = cfg.Model
	}
	if opts.ProviderName == "" {
		opts.ProviderName = cfg.Provider
	}
	if opts.StyleName == "" {
		opts.StyleName = cfg.Style
	}
	if opts.PauseMs == 0 {
		opts.PauseMs = cfg.PauseMs
	}
}

// loadManifest reads cast.yaml when named explicitly or present in the book
// directory. No manifest is not an error.
func loadManifest(opts RunOptions) (*config.Manifest, error) {
	if opts.ManifestPath != "" {
		return config.LoadManifest(opts.ManifestPath)
	}
	if opts.BookDir == "" {
		return nil, nil
	}
	p := filepath.Join(opts.BookDir, config.ManifestFileName)
	if _, err := os.Stat(p); err != nil {
		return nil, nil
	}
	return config.LoadManifest(p)
}

// feedSpec derives the pipeline feed configuration from the manifest.
func feedSpec(m *config.Manifest) *pipeline.FeedSpec {
	if m == nil || m.Feed.BaseURL == "" {
		return nil
	}
	return &pipeline.FeedSpec{
		Channel: feed.Channel{
			Title:       firstNonEmpty(m.Feed.Title, m.Book.Title),
			Link:        m.Feed.Link,
			Description: m.Feed.Description,
			Language:    m.Feed.Language,
			Author:      firstNonEmpty(m.Feed.Author, m.Book.Author),
			ImageURL:    m.Feed.Image,
		},
		BaseURL: m.Feed.BaseURL,
	}
}

// resolveAPIKey returns the provider's API key from the environment.
func resolveAPIKey(env *Env, p rewrite.Provider) (string, error) {
	if p == rewrite.ProviderDeepSeek {
		if key := env.Getenv(EnvDeepSeekAPIKey); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w (set it with: export %s=sk-...)", ErrDeepSeekKeyMissing, EnvDeepSeekAPIKey)
	}
	if key := env.Getenv(EnvOpenAIAPIKey); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
