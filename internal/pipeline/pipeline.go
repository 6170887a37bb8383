// Package pipeline sequences one run: extract chapters, gate them on
// structural headings, rewrite into narration, render per-chapter audio,
// and assemble the combined episode. Chapter-level failures exclude the
// chapter and the run continues; only an empty chapter set or a combined
// artifact failure halts it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/tetsuyaohira/tech-talk-cast/internal/assemble"
	"github.com/tetsuyaohira/tech-talk-cast/internal/book"
	"github.com/tetsuyaohira/tech-talk-cast/internal/feed"
	"github.com/tetsuyaohira/tech-talk-cast/internal/format"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/speech"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// Output layout inside the run's output directory.
const (
	TextDirName     = "text"
	AudioDirName    = "audio"
	EpisodeFileName = "episode.mp3"
	FeedFileName    = "feed.xml"
)

// Rewriter is the slice of the rewrite stage the orchestrator depends on.
type Rewriter interface {
	Rewrite(ctx context.Context, chapterText string, style template.Name) (string, error)
}

// Renderer is the slice of the render stage the orchestrator depends on.
type Renderer interface {
	RenderMany(ctx context.Context, units []render.Unit, outDir string) ([]render.Segment, []render.Failure, error)
}

// Assembler is the slice of the assembly stage the orchestrator depends on.
type Assembler interface {
	Assemble(ctx context.Context, units []assemble.Unit, outPath string) ([]assemble.Mark, error)
	Combine(ctx context.Context, units []assemble.Unit, outPath string) ([]assemble.Mark, error)
}

// Options selects which stages run and where artifacts land.
type Options struct {
	OutputDir   string
	Style       template.Name
	SkipRewrite bool // narrate the extracted text as-is
	SkipRender  bool // stop after text artifacts
	SkipFeed    bool
	CombineOnly bool // rebuild the episode from existing per-chapter artifacts
	Verbose     bool
}

// FeedSpec configures feed generation. BaseURL is the public prefix under
// which the output directory is served.
type FeedSpec struct {
	Channel feed.Channel
	BaseURL string
}

// Skipped records one chapter excluded from the run, with the stage that
// dropped it.
type Skipped struct {
	Order  int
	Title  string
	Reason string
}

// Summary is the end-of-run report.
type Summary struct {
	Extracted   int
	Narrated    int
	Rendered    int
	Skipped     []Skipped
	Marks       []assemble.Mark
	EpisodePath string
	EpisodeSize int64
	FeedPath    string
	Estimated   []int // orders whose duration is a file-size estimate
}

// TotalDuration is the combined episode length, derived from the final mark.
func (s *Summary) TotalDuration() time.Duration {
	if len(s.Marks) == 0 {
		return 0
	}
	return time.Duration(s.Marks[len(s.Marks)-1].EndMs) * time.Millisecond
}

// Report writes the human-readable run summary.
func (s *Summary) Report(w io.Writer) {
	fmt.Fprintf(w, "\nChapters: %d extracted, %d narrated, %d rendered\n", s.Extracted, s.Narrated, s.Rendered)
	for _, sk := range s.Skipped {
		fmt.Fprintf(w, "  skipped chapter %d (%s): %s\n", sk.Order, sk.Title, sk.Reason)
	}
	for _, order := range s.Estimated {
		fmt.Fprintf(w, "  chapter %d duration is an estimate, not a measurement\n", order)
	}
	if s.EpisodePath != "" {
		fmt.Fprintf(w, "Episode: %s (%s, %s, %d chapters)\n", s.EpisodePath,
			format.DurationHuman(s.TotalDuration()), format.Size(s.EpisodeSize), len(s.Marks))
		for _, m := range s.Marks {
			fmt.Fprintf(w, "  %s - %s  %s\n", format.Offset(m.StartMs), format.Offset(m.EndMs), m.Title)
		}
	}
	if s.FeedPath != "" {
		fmt.Fprintf(w, "Feed: %s\n", s.FeedPath)
	}
}

// Orchestrator drives one run end to end.
type Orchestrator struct {
	source    book.Source
	rewriter  Rewriter
	renderer  Renderer
	assembler Assembler
	opts      Options
	feedSpec  *FeedSpec
	stderr    io.Writer
	now       func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithFeed enables feed generation with the given channel metadata.
func WithFeed(spec FeedSpec) OrchestratorOption {
	return func(o *Orchestrator) { o.feedSpec = &spec }
}

// WithStderr sets the progress/diagnostic writer.
func WithStderr(w io.Writer) OrchestratorOption {
	return func(o *Orchestrator) {
		if w != nil {
			o.stderr = w
		}
	}
}

// WithNow sets the clock used for feed publication timestamps.
func WithNow(fn func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = fn }
}

// New creates an Orchestrator over the given stage implementations.
func New(src book.Source, rw Rewriter, rd Renderer, asm Assembler, opts Options, optFns ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		source:    src,
		rewriter:  rw,
		renderer:  rd,
		assembler: asm,
		opts:      opts,
		stderr:    os.Stderr,
		now:       time.Now,
	}
	for _, fn := range optFns {
		fn(o)
	}
	return o
}

// TextFileName returns the deterministic narration artifact name for a
// chapter; it pairs with render.FileName for the audio artifact.
func TextFileName(order int, title string) string {
	return fmt.Sprintf("%02d_%s.txt", order, speech.SanitizeTitle(title))
}

// Run executes the configured stages and returns the run summary. The
// summary is returned even on fatal errors, describing how far the run got.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if o.opts.CombineOnly {
		return o.combineOnly(ctx)
	}

	sum := &Summary{}

	chapters, err := o.source.Chapters(ctx)
	if err != nil {
		return sum, fmt.Errorf("extract chapters: %w", err)
	}
	sum.Extracted = len(chapters)

	// Heading gate: chapters without structural headings (front matter,
	// dedications) are content to drop, not errors.
	var kept []book.Chapter
	for _, ch := range chapters {
		if !book.HasHeading(ch.RawText) {
			o.logf("Skipping chapter %d (%s): no heading\n", ch.Order, ch.Title)
			sum.Skipped = append(sum.Skipped, Skipped{Order: ch.Order, Title: ch.Title, Reason: "no structural heading"})
			continue
		}
		kept = append(kept, ch)
	}
	if len(kept) == 0 {
		return sum, fmt.Errorf("%d chapters extracted: %w", sum.Extracted, ErrAllFiltered)
	}

	units, err := o.narrate(ctx, kept, sum)
	if err != nil {
		return sum, err
	}
	if len(units) == 0 {
		return sum, fmt.Errorf("%d chapters attempted: %w", len(kept), ErrAllRewritesFailed)
	}
	sum.Narrated = len(units)

	if o.opts.SkipRender {
		o.logf("Render skipped: narration texts written to %s\n", filepath.Join(o.opts.OutputDir, TextDirName))
		return sum, nil
	}

	segments, failures, err := o.renderer.RenderMany(ctx, units, filepath.Join(o.opts.OutputDir, AudioDirName))
	if err != nil {
		return sum, fmt.Errorf("render chapters: %w", err)
	}
	for _, f := range failures {
		sum.Skipped = append(sum.Skipped, Skipped{Order: f.Order, Title: f.Title, Reason: fmt.Sprintf("render failed: %v", f.Err)})
	}
	sum.Rendered = len(segments)

	marks, err := o.assembleSegments(ctx, units, segments, sum)
	if err != nil {
		return sum, err
	}
	sum.Marks = marks

	if err := o.writeFeed(segments, sum); err != nil {
		return sum, err
	}
	return sum, nil
}

// narrate produces one narration unit per chapter and persists it as a text
// artifact. A chapter whose rewrite fails is excluded; the run continues.
func (o *Orchestrator) narrate(ctx context.Context, chapters []book.Chapter, sum *Summary) ([]render.Unit, error) {
	textDir := filepath.Join(o.opts.OutputDir, TextDirName)
	if err := os.MkdirAll(textDir, 0o750); err != nil {
		return nil, fmt.Errorf("create text directory: %w", err)
	}

	var units []render.Unit
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return units, err
		}

		narration := book.PlainText(ch.RawText)
		if !o.opts.SkipRewrite {
			o.logf("Rewriting chapter %d: %s...\n", ch.Order, ch.Title)
			out, err := o.rewriter.Rewrite(ctx, narration, o.opts.Style)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return units, err
				}
				o.logf("Warning: chapter %d (%s) rewrite failed: %v\n", ch.Order, ch.Title, err)
				sum.Skipped = append(sum.Skipped, Skipped{Order: ch.Order, Title: ch.Title, Reason: fmt.Sprintf("rewrite failed: %v", err)})
				continue
			}
			narration = out
		}

		path := filepath.Join(textDir, TextFileName(ch.Order, ch.Title))
		if err := os.WriteFile(path, []byte(narration), 0o600); err != nil {
			return units, fmt.Errorf("write narration for chapter %d: %w", ch.Order, err)
		}
		units = append(units, render.Unit{Order: ch.Order, Title: ch.Title, Text: narration})
	}
	return units, nil
}

// assembleSegments builds the combined episode from the rendered segments.
func (o *Orchestrator) assembleSegments(ctx context.Context, units []render.Unit, segments []render.Segment, sum *Summary) ([]assemble.Mark, error) {
	textByOrder := make(map[int]string, len(units))
	for _, u := range units {
		textByOrder[u.Order] = u.Text
	}

	asmUnits := make([]assemble.Unit, 0, len(segments))
	for _, seg := range segments {
		if seg.DurationEstimated {
			sum.Estimated = append(sum.Estimated, seg.Order)
		}
		asmUnits = append(asmUnits, assemble.Unit{
			Order:             seg.Order,
			Title:             seg.Title,
			Text:              textByOrder[seg.Order],
			AudioPath:         seg.AudioPath,
			DurationSeconds:   seg.DurationSeconds,
			DurationEstimated: seg.DurationEstimated,
		})
	}

	episodePath := filepath.Join(o.opts.OutputDir, EpisodeFileName)
	marks, err := o.assembler.Assemble(ctx, asmUnits, episodePath)
	if err != nil {
		return nil, err
	}
	sum.EpisodePath = episodePath
	if info, err := os.Stat(episodePath); err == nil {
		sum.EpisodeSize = info.Size()
	}
	return marks, nil
}

// writeFeed emits the RSS document for the per-chapter artifacts. Chapters
// remain independently playable, so each rendered segment is an episode.
func (o *Orchestrator) writeFeed(segments []render.Segment, sum *Summary) error {
	if o.opts.SkipFeed || o.feedSpec == nil {
		return nil
	}

	published := o.now()
	episodes := make([]feed.Episode, 0, len(segments))
	for _, seg := range segments {
		var size int64
		if info, err := os.Stat(seg.AudioPath); err == nil {
			size = info.Size()
		}
		episodes = append(episodes, feed.Episode{
			Title:           seg.Title,
			AudioURL:        o.feedSpec.BaseURL + "/" + AudioDirName + "/" + filepath.Base(seg.AudioPath),
			SizeBytes:       size,
			DurationSeconds: seg.DurationSeconds,
			PublishedAt:     published,
		})
	}

	feedPath := filepath.Join(o.opts.OutputDir, FeedFileName)
	if err := feed.WriteFile(feedPath, o.feedSpec.Channel, episodes); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	sum.FeedPath = feedPath
	return nil
}

// textArtifactName matches persisted narration artifacts.
var textArtifactName = regexp.MustCompile(`^(\d+)_(.+)\.txt$`)

// combineOnly rebuilds the episode from artifacts of a previous run: the
// persisted narration texts and per-chapter audio files. Durations are
// re-measured from the audio; the combined script is rendered fresh.
func (o *Orchestrator) combineOnly(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	textDir := filepath.Join(o.opts.OutputDir, TextDirName)
	audioDir := filepath.Join(o.opts.OutputDir, AudioDirName)

	entries, err := os.ReadDir(textDir)
	if err != nil {
		return sum, fmt.Errorf("combine-only needs narration texts in %s: %w", textDir, err)
	}

	var units []assemble.Unit
	for _, e := range entries {
		m := textArtifactName.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		order, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		title := m[2]

		audioPath := filepath.Join(audioDir, fmt.Sprintf("%s_%s.mp3", m[1], title))
		if _, err := os.Stat(audioPath); err != nil {
			o.logf("Skipping chapter %d (%s): no rendered audio\n", order, title)
			sum.Skipped = append(sum.Skipped, Skipped{Order: order, Title: title, Reason: "no rendered audio"})
			continue
		}

		text, err := os.ReadFile(filepath.Join(textDir, e.Name()))
		if err != nil {
			return sum, fmt.Errorf("read narration for chapter %d: %w", order, err)
		}
		units = append(units, assemble.Unit{
			Order:     order,
			Title:     title,
			Text:      string(text),
			AudioPath: audioPath,
		})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Order < units[j].Order })
	sum.Extracted = len(units) + len(sum.Skipped)
	sum.Narrated = len(units)
	sum.Rendered = len(units)

	episodePath := filepath.Join(o.opts.OutputDir, EpisodeFileName)
	marks, err := o.assembler.Combine(ctx, units, episodePath)
	if err != nil {
		return sum, err
	}
	sum.Marks = marks
	sum.EpisodePath = episodePath
	if info, err := os.Stat(episodePath); err == nil {
		sum.EpisodeSize = info.Size()
	}
	return sum, nil
}

func (o *Orchestrator) logf(msg string, args ...any) {
	fmt.Fprintf(o.stderr, msg, args...)
}
