package cli_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tetsuyaohira/tech-talk-cast/internal/assemble"
	"github.com/tetsuyaohira/tech-talk-cast/internal/book"
	"github.com/tetsuyaohira/tech-talk-cast/internal/cli"
	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/pipeline"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/storage"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// ---------------------------------------------------------------------------
// Mocks implementing the Env factory interfaces
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load(_ context.Context) (config.Config, error) {
	return m.cfg, m.err
}

type mockTools struct {
	sayErr    error
	ffmpegErr error
}

func (m *mockTools) ResolveSay() (string, error) {
	if m.sayErr != nil {
		return "", m.sayErr
	}
	return "/usr/bin/say", nil
}

func (m *mockTools) ResolveFFmpeg() (string, error) {
	if m.ffmpegErr != nil {
		return "", m.ffmpegErr
	}
	return "/usr/bin/ffmpeg", nil
}

type mockSource struct {
	chapters []book.Chapter
	err      error
}

func (m *mockSource) Chapters(_ context.Context) ([]book.Chapter, error) {
	return m.chapters, m.err
}

type mockSourceFactory struct {
	src  *mockSource
	dirs []string
}

func (m *mockSourceFactory) NewDirSource(dir string) book.Source {
	m.dirs = append(m.dirs, dir)
	return m.src
}

type mockRewriter struct {
	calls  int
	styles []template.Name
}

func (m *mockRewriter) Rewrite(_ context.Context, chapterText string, style template.Name) (string, error) {
	m.calls++
	m.styles = append(m.styles, style)
	return "narrated: " + chapterText, nil
}

type mockRewriterFactory struct {
	rw        *mockRewriter
	providers []rewrite.Provider
	apiKeys   []string
}

func (m *mockRewriterFactory) NewRewriter(p rewrite.Provider, apiKey string, _ ...rewrite.Option) rewrite.Rewriter {
	m.providers = append(m.providers, p)
	m.apiKeys = append(m.apiKeys, apiKey)
	return m.rw
}

// fakeRenderer satisfies cli.Renderer without external tools.
type fakeRenderer struct {
	scripts []string
}

func (f *fakeRenderer) RenderMany(_ context.Context, units []render.Unit, outDir string) ([]render.Segment, []render.Failure, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, nil, err
	}
	var segments []render.Segment
	for _, u := range units {
		path := filepath.Join(outDir, render.FileName(u.Order, u.Title))
		if err := os.WriteFile(path, []byte("MP3DATA"), 0o600); err != nil {
			return nil, nil, err
		}
		segments = append(segments, render.Segment{Order: u.Order, Title: u.Title, AudioPath: path, DurationSeconds: 10.0})
	}
	return segments, nil, nil
}

func (f *fakeRenderer) RenderScript(_ context.Context, formatted, outputPath string) error {
	f.scripts = append(f.scripts, formatted)
	return os.WriteFile(outputPath, []byte("MP3DATA"), 0o600)
}

func (f *fakeRenderer) MeasureDuration(_ context.Context, _ string) (float64, bool, error) {
	return 10.0, false, nil
}

type mockRendererFactory struct {
	renderer *fakeRenderer
	says     []string
	ffmpegs  []string
}

func (m *mockRendererFactory) NewRenderer(sayPath, ffmpegPath string, _ ...render.RendererOption) cli.Renderer {
	m.says = append(m.says, sayPath)
	m.ffmpegs = append(m.ffmpegs, ffmpegPath)
	return m.renderer
}

// fakeAssembler writes the episode file and derives marks from durations.
type fakeAssembler struct {
	assembleCalls int
	combineCalls  int
}

func (f *fakeAssembler) Assemble(_ context.Context, units []assemble.Unit, outPath string) ([]assemble.Mark, error) {
	f.assembleCalls++
	if err := os.WriteFile(outPath, []byte("EPISODE"), 0o600); err != nil {
		return nil, err
	}
	return assemble.ComputeMarks(units, 1000), nil
}

func (f *fakeAssembler) Combine(_ context.Context, units []assemble.Unit, outPath string) ([]assemble.Mark, error) {
	f.combineCalls++
	if err := os.WriteFile(outPath, []byte("EPISODE"), 0o600); err != nil {
		return nil, err
	}
	return assemble.ComputeMarks(units, 1000), nil
}

type mockAssemblerFactory struct {
	asm *fakeAssembler
}

func (m *mockAssemblerFactory) NewAssembler(_ assemble.ScriptRenderer, _ string, _ ...assemble.AssemblerOption) pipeline.Assembler {
	return m.asm
}

// recordingPublisher captures published keys and returns stable URLs.
type recordingPublisher struct {
	keys []string
}

func (r *recordingPublisher) Publish(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	r.keys = append(r.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type mockPublisherFactory struct {
	pub      *recordingPublisher
	localDir string
	s3Cfg    *storage.S3Config
}

func (m *mockPublisherFactory) NewLocal(dir, _ string) (storage.Publisher, error) {
	m.localDir = dir
	return m.pub, nil
}

func (m *mockPublisherFactory) NewS3(_ context.Context, cfg storage.S3Config) (storage.Publisher, error) {
	m.s3Cfg = &cfg
	return m.pub, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testEnv wires an Env whose factories never touch the network or external
// tools. Individual tests override fields as needed.
type testEnv struct {
	env        *cli.Env
	source     *mockSource
	sources    *mockSourceFactory
	rewriters  *mockRewriterFactory
	renderers  *mockRendererFactory
	assembler  *fakeAssembler
	publishers *mockPublisherFactory
	getenv     map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{
		source:     &mockSource{},
		rewriters:  &mockRewriterFactory{rw: &mockRewriter{}},
		renderers:  &mockRendererFactory{renderer: &fakeRenderer{}},
		assembler:  &fakeAssembler{},
		publishers: &mockPublisherFactory{pub: &recordingPublisher{}},
		getenv:     map[string]string{"OPENAI_API_KEY": "sk-test"},
	}
	te.sources = &mockSourceFactory{src: te.source}
	te.env = cli.NewEnv(
		cli.WithStdout(io.Discard),
		cli.WithStderr(io.Discard),
		cli.WithGetenv(func(k string) string { return te.getenv[k] }),
		cli.WithConfigLoader(&mockConfigLoader{}),
		cli.WithToolResolver(&mockTools{}),
		cli.WithSourceFactory(te.sources),
		cli.WithRewriterFactory(te.rewriters),
		cli.WithRendererFactory(te.renderers),
		cli.WithAssemblerFactory(&mockAssemblerFactory{asm: te.assembler}),
		cli.WithPublisherFactory(te.publishers),
	)
	return te
}

func chapterFixture(order int, title, body string) book.Chapter {
	return book.Chapter{Order: order, Title: title, RawText: "# " + title + "\n\n" + body}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
