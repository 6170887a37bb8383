package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/tetsuyaohira/tech-talk-cast/internal/assemble"
	"github.com/tetsuyaohira/tech-talk-cast/internal/book"
	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/ffmpeg"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/storage"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields using the With* options.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader ConfigLoader
	Tools        ToolResolver
	Sources      SourceFactory
	Rewriters    RewriterFactory
	Renderers    RendererFactory
	Assemblers   AssemblerFactory
	Publishers   PublisherFactory
}

// ConfigLoader loads user configuration.
type ConfigLoader interface {
	Load(ctx context.Context) (config.Config, error)
}

// ToolResolver locates the external synthesis and transcode binaries.
type ToolResolver interface {
	ResolveSay() (string, error)
	ResolveFFmpeg() (string, error)
}

// SourceFactory creates document sources.
type SourceFactory interface {
	NewDirSource(dir string) book.Source
}

// RewriterFactory creates narration rewriters.
type RewriterFactory interface {
	NewRewriter(p rewrite.Provider, apiKey string, opts ...rewrite.Option) rewrite.Rewriter
}

// Renderer is the render surface commands need: per-chapter batches for the
// pipeline plus script-level rendering and measurement for assembly.
type Renderer interface {
	pipeline.Renderer
	assemble.ScriptRenderer
}

// RendererFactory creates audio renderers.
type RendererFactory interface {
	NewRenderer(sayPath, ffmpegPath string, opts ...render.RendererOption) Renderer
}

// AssemblerFactory creates episode assemblers.
type AssemblerFactory interface {
	NewAssembler(r assemble.ScriptRenderer, ffmpegPath string, opts ...assemble.AssemblerOption) pipeline.Assembler
}

// PublisherFactory creates publish backends.
type PublisherFactory interface {
	NewLocal(dir, baseURL string) (storage.Publisher, error)
	NewS3(ctx context.Context, cfg storage.S3Config) (storage.Publisher, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithToolResolver sets the external tool resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) { e.Tools = r }
}

// WithSourceFactory sets the document source factory.
func WithSourceFactory(f SourceFactory) EnvOption {
	return func(e *Env) { e.Sources = f }
}

// WithRewriterFactory sets the rewriter factory.
func WithRewriterFactory(f RewriterFactory) EnvOption {
	return func(e *Env) { e.Rewriters = f }
}

// WithRendererFactory sets the renderer factory.
func WithRendererFactory(f RendererFactory) EnvOption {
	return func(e *Env) { e.Renderers = f }
}

// WithAssemblerFactory sets the assembler factory.
func WithAssemblerFactory(f AssemblerFactory) EnvOption {
	return func(e *Env) { e.Assemblers = f }
}

// WithPublisherFactory sets the publish backend factory.
func WithPublisherFactory(f PublisherFactory) EnvOption {
	return func(e *Env) { e.Publishers = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Getenv:       os.Getenv,
		Now:          time.Now,
		ConfigLoader: &defaultConfigLoader{},
		Tools:        &defaultToolResolver{},
		Sources:      &defaultSourceFactory{},
		Rewriters:    &defaultRewriterFactory{},
		Renderers:    &defaultRendererFactory{},
		Assemblers:   &defaultAssemblerFactory{},
		Publishers:   &defaultPublisherFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(ctx context.Context) (config.Config, error) {
	return config.Load(ctx)
}

type defaultToolResolver struct{}

func (defaultToolResolver) ResolveSay() (string, error) {
	return render.ResolveSay()
}

func (defaultToolResolver) ResolveFFmpeg() (string, error) {
	return ffmpeg.Resolve()
}

type defaultSourceFactory struct{}

func (defaultSourceFactory) NewDirSource(dir string) book.Source {
	return book.NewDirSource(dir)
}

type defaultRewriterFactory struct{}

func (defaultRewriterFactory) NewRewriter(p rewrite.Provider, apiKey string, opts ...rewrite.Option) rewrite.Rewriter {
	return rewrite.NewChatRewriter(p.NewClient(apiKey), opts...)
}

type defaultRendererFactory struct{}

func (defaultRendererFactory) NewRenderer(sayPath, ffmpegPath string, opts ...render.RendererOption) Renderer {
	return render.NewRenderer(sayPath, ffmpegPath, opts...)
}

type defaultAssemblerFactory struct{}

func (defaultAssemblerFactory) NewAssembler(r assemble.ScriptRenderer, ffmpegPath string, opts ...assemble.AssemblerOption) pipeline.Assembler {
	return assemble.NewAssembler(r, ffmpegPath, opts...)
}

type defaultPublisherFactory struct{}

func (defaultPublisherFactory) NewLocal(dir, baseURL string) (storage.Publisher, error) {
	return storage.NewLocalPublisher(dir, baseURL)
}

func (defaultPublisherFactory) NewS3(ctx context.Context, cfg storage.S3Config) (storage.Publisher, error) {
	return storage.NewS3Publisher(ctx, cfg)
}

// Compile-time interface verification.
var (
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ ToolResolver     = (*defaultToolResolver)(nil)
	_ SourceFactory    = (*defaultSourceFactory)(nil)
	_ RewriterFactory  = (*defaultRewriterFactory)(nil)
	_ RendererFactory  = (*defaultRendererFactory)(nil)
	_ AssemblerFactory = (*defaultAssemblerFactory)(nil)
	_ PublisherFactory = (*defaultPublisherFactory)(nil)
)
