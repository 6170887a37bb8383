// Package assemble combines per-chapter narration into one episode artifact.
// Chapter marker times are derived from measured per-chapter durations, and
// the episode audio is produced by a single render of the concatenated
// script, so the markers and the audio always describe the same narration.
package assemble

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tetsuyaohira/tech-talk-cast/internal/ffmpeg"
	"github.com/tetsuyaohira/tech-talk-cast/internal/render"
	"github.com/tetsuyaohira/tech-talk-cast/internal/speech"
)

// Unit is one chapter entering assembly. Text is the narration text as
// rendered per-chapter; AudioPath points at the per-chapter artifact and is
// consulted only when durations must be re-measured.
type Unit struct {
	Order             int
	Title             string
	Text              string
	AudioPath         string
	DurationSeconds   float64
	DurationEstimated bool
}

// DefaultPauseMs is the silence between chapters. The same value is spoken
// into the combined script and added between consecutive marker ranges, so
// the two stay in agreement.
const DefaultPauseMs = 1000

// defaultTimeout bounds the metadata mux invocation.
const defaultTimeout = 10 * time.Minute

// ScriptRenderer is the slice of the renderer assembly depends on.
type ScriptRenderer interface {
	RenderScript(ctx context.Context, formatted, outputPath string) error
	MeasureDuration(ctx context.Context, audioPath string) (seconds float64, estimated bool, err error)
}

var _ ScriptRenderer = (*render.Renderer)(nil)

// Assembler produces the combined episode MP3 with embedded chapter markers.
type Assembler struct {
	renderer   ScriptRenderer
	ffmpegPath string
	exec       *ffmpeg.Executor
	pauseMs    int64
	markers    bool
	timeout    time.Duration
	stderr     io.Writer
	newID      func() string
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithPause sets the inter-chapter pause in milliseconds.
func WithPause(ms int64) AssemblerOption {
	return func(a *Assembler) {
		if ms >= 0 {
			a.pauseMs = ms
		}
	}
}

// WithChapterMarkers toggles the embedded chapter track.
func WithChapterMarkers(on bool) AssemblerOption {
	return func(a *Assembler) { a.markers = on }
}

// WithTimeout bounds the metadata mux invocation.
func WithTimeout(d time.Duration) AssemblerOption {
	return func(a *Assembler) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithStderr sets the progress/diagnostic writer.
func WithStderr(w io.Writer) AssemblerOption {
	return func(a *Assembler) {
		if w != nil {
			a.stderr = w
		}
	}
}

// withExecutor sets a custom command executor (for testing).
func withExecutor(e *ffmpeg.Executor) AssemblerOption {
	return func(a *Assembler) { a.exec = e }
}

// NewAssembler creates an Assembler backed by the given renderer and
// ffmpeg binary.
func NewAssembler(r ScriptRenderer, ffmpegPath string, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		renderer:   r,
		ffmpegPath: ffmpegPath,
		exec:       ffmpeg.NewExecutor(),
		pauseMs:    DefaultPauseMs,
		markers:    true,
		timeout:    defaultTimeout,
		stderr:     os.Stderr,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Script builds the combined narration script: each unit's text annotated
// exactly as its individual render was, joined by an explicit pause
// directive of the inter-chapter length. Marker arithmetic and the spoken
// script share the one pause value.
func (a *Assembler) Script(units []Unit) string {
	joiner := "\n\n" + speech.Slnc(int(a.pauseMs)) + "\n\n"
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = speech.Annotate(u.Text)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += joiner + p
	}
	return out
}

// Assemble renders the combined episode to outPath and returns the chapter
// marks embedded in it. Marks are computed from the units' durations as
// given; callers are responsible for those durations describing the same
// narration text, which holds when they come from RenderMany over the same
// units or from Combine's re-measurement.
func (a *Assembler) Assemble(ctx context.Context, units []Unit, outPath string) ([]Mark, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAssemblyFailed, ErrNoUnits)
	}

	marks := ComputeMarks(units, a.pauseMs)
	script := a.Script(units)

	if !a.markers {
		fmt.Fprintf(a.stderr, "Rendering combined episode (%d chapters, no marker track)...\n", len(units))
		if err := a.renderer.RenderScript(ctx, script, outPath); err != nil {
			return nil, fmt.Errorf("%w: combined render: %w", ErrAssemblyFailed, err)
		}
		return marks, nil
	}

	dir := filepath.Dir(outPath)
	id := a.newID()
	plainPath := filepath.Join(dir, ".cast-plain-"+id+".mp3")
	metaPath := filepath.Join(dir, ".cast-chapters-"+id+".txt")
	defer func() {
		_ = os.Remove(plainPath)
		_ = os.Remove(metaPath)
	}()

	fmt.Fprintf(a.stderr, "Rendering combined episode (%d chapters)...\n", len(units))
	if err := a.renderer.RenderScript(ctx, script, plainPath); err != nil {
		return nil, fmt.Errorf("%w: combined render: %w", ErrAssemblyFailed, err)
	}

	meta, err := os.Create(metaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: chapter metadata: %w", ErrAssemblyFailed, err)
	}
	werr := WriteFFMetadata(meta, marks)
	if cerr := meta.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return nil, fmt.Errorf("%w: chapter metadata: %w", ErrAssemblyFailed, werr)
	}

	muxCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	muxArgs := []string{
		"-y",
		"-i", plainPath,
		"-f", "ffmetadata",
		"-i", metaPath,
		"-map_metadata", "1",
		"-codec", "copy",
		"-id3v2_version", "3",
		outPath,
	}
	if err := a.exec.Run(muxCtx, a.ffmpegPath, muxArgs); err != nil {
		return nil, fmt.Errorf("%w: embed chapter markers: %w", ErrAssemblyFailed, err)
	}

	return marks, nil
}

// Combine rebuilds the episode from existing per-chapter artifacts: each
// unit's duration is re-measured from its audio file, marks are recomputed,
// and the combined script is rendered fresh. Running it again over the same
// artifacts yields the same marks.
func (a *Assembler) Combine(ctx context.Context, units []Unit, outPath string) ([]Mark, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAssemblyFailed, ErrNoUnits)
	}

	remeasured := make([]Unit, len(units))
	copy(remeasured, units)
	for i := range remeasured {
		seconds, estimated, err := a.renderer.MeasureDuration(ctx, remeasured[i].AudioPath)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %d: %w", ErrAssemblyFailed, remeasured[i].Order, err)
		}
		if estimated {
			fmt.Fprintf(a.stderr, "Warning: chapter %d duration is estimated from file size\n", remeasured[i].Order)
		}
		remeasured[i].DurationSeconds = seconds
		remeasured[i].DurationEstimated = estimated
	}

	return a.Assemble(ctx, remeasured, outPath)
}
