// Package render synthesizes narration text to audio. Each unit is formatted
// for the speech engine, spoken to a transient AIFF via the platform `say`
// tool, transcoded to MP3 with ffmpeg, and measured for duration. Transient
// resources are removed on every exit path.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tetsuyaohira/tech-talk-cast/internal/ffmpeg"
	"github.com/tetsuyaohira/tech-talk-cast/internal/speech"
)

// Unit is one chapter's speech-ready narration text.
type Unit struct {
	Order int
	Title string
	Text  string
}

// Segment is one chapter's rendered audio artifact.
// DurationSeconds is measured from the artifact. DurationEstimated marks the
// degraded case where measurement failed and the value is a file-size
// estimate; estimates are advisory and must never be presented as measured.
type Segment struct {
	Order             int
	Title             string
	AudioPath         string
	DurationSeconds   float64
	DurationEstimated bool
}

// Failure records one unit that could not be rendered.
type Failure struct {
	Order int
	Title string
	Err   error
}

// Default synthesis configuration.
const (
	DefaultVoice       = "Samantha"
	DefaultRate        = 180 // words per minute
	DefaultBitrateKbps = 64

	// defaultTimeout bounds one external invocation (synthesis or
	// transcode), not the whole batch.
	defaultTimeout = 10 * time.Minute
)

// durationPattern extracts the stream duration from ffmpeg probe output.
var durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// EnvSayPath overrides discovery of the say binary.
const EnvSayPath = "SAY_PATH"

// ResolveSay locates the platform speech synthesizer.
func ResolveSay() (string, error) {
	if p := os.Getenv(EnvSayPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvSayPath, p, ErrSayNotFound)
		}
		return p, nil
	}
	p, err := exec.LookPath("say")
	if err != nil {
		return "", fmt.Errorf("set %s or run on a platform with say: %w", EnvSayPath, ErrSayNotFound)
	}
	return p, nil
}

// Renderer drives speech synthesis and transcoding.
type Renderer struct {
	sayPath    string
	ffmpegPath string
	voice      string
	rate       int
	bitrate    int
	timeout    time.Duration
	stderr     io.Writer
	exec       *ffmpeg.Executor
	tempDir    string
	newID      func() string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithVoice sets the synthesis voice.
func WithVoice(v string) RendererOption {
	return func(r *Renderer) {
		if v != "" {
			r.voice = v
		}
	}
}

// WithRate sets the speaking rate in words per minute.
func WithRate(wpm int) RendererOption {
	return func(r *Renderer) {
		if wpm > 0 {
			r.rate = wpm
		}
	}
}

// WithBitrate sets the MP3 bitrate in kbps.
func WithBitrate(kbps int) RendererOption {
	return func(r *Renderer) {
		if kbps > 0 {
			r.bitrate = kbps
		}
	}
}

// WithTimeout bounds each external invocation.
func WithTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithStderr sets the progress/diagnostic writer.
func WithStderr(w io.Writer) RendererOption {
	return func(r *Renderer) {
		if w != nil {
			r.stderr = w
		}
	}
}

// withExecutor sets a custom command executor (for testing).
func withExecutor(e *ffmpeg.Executor) RendererOption {
	return func(r *Renderer) { r.exec = e }
}

// withTempDir redirects transient files (for testing).
func withTempDir(dir string) RendererOption {
	return func(r *Renderer) { r.tempDir = dir }
}

// NewRenderer creates a Renderer using the given tool paths.
func NewRenderer(sayPath, ffmpegPath string, opts ...RendererOption) *Renderer {
	r := &Renderer{
		sayPath:    sayPath,
		ffmpegPath: ffmpegPath,
		voice:      DefaultVoice,
		rate:       DefaultRate,
		bitrate:    DefaultBitrateKbps,
		timeout:    defaultTimeout,
		stderr:     os.Stderr,
		exec:       ffmpeg.NewExecutor(),
		tempDir:    os.TempDir(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the deterministic artifact name for a unit.
func FileName(order int, title string) string {
	return fmt.Sprintf("%02d_%s.mp3", order, speech.SanitizeTitle(title))
}

// Render formats text for the speech engine and synthesizes it to an MP3
// at outputPath.
func (r *Renderer) Render(ctx context.Context, text, outputPath string) error {
	return r.RenderScript(ctx, speech.Annotate(text), outputPath)
}

// RenderScript synthesizes an already speech-formatted script verbatim.
// The assembler uses this for the combined single-pass render: chapter texts
// are annotated once, identically to their individual renders, so measured
// per-chapter durations stay valid in the combined artifact.
//
// The script file and the intermediate AIFF are transient resources,
// uniquely named per invocation and removed on every exit path: success,
// synthesis failure, or transcode failure.
func (r *Renderer) RenderScript(ctx context.Context, formatted, outputPath string) error {
	id := r.newID()
	scriptPath := filepath.Join(r.tempDir, "cast-script-"+id+".txt")
	aiffPath := filepath.Join(r.tempDir, "cast-voice-"+id+".aiff")
	defer func() {
		_ = os.Remove(scriptPath)
		_ = os.Remove(aiffPath)
	}()

	if err := os.WriteFile(scriptPath, []byte(formatted), 0o600); err != nil {
		return fmt.Errorf("write narration script: %w: %w", ErrRenderFailed, err)
	}

	sayCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	sayArgs := []string{
		"-v", r.voice,
		"-r", strconv.Itoa(r.rate),
		"-f", scriptPath,
		"-o", aiffPath,
	}
	if err := r.exec.Run(sayCtx, r.sayPath, sayArgs); err != nil {
		return fmt.Errorf("synthesize: %w: %w", ErrRenderFailed, err)
	}

	encCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	encArgs := []string{
		"-y",
		"-i", aiffPath,
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", r.bitrate),
		outputPath,
	}
	if err := r.exec.Run(encCtx, r.ffmpegPath, encArgs); err != nil {
		return fmt.Errorf("transcode: %w: %w", ErrRenderFailed, err)
	}

	return nil
}

// MeasureDuration queries an audio artifact's duration in seconds.
//
// Measurement comes from the rendered file, never from prediction. When the
// probe output cannot be parsed the file-size estimate is returned with
// estimated=true; that degraded value is advisory for marker placement, not
// authoritative. An error is returned only when the file is missing.
func (r *Renderer) MeasureDuration(ctx context.Context, audioPath string) (seconds float64, estimated bool, err error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return 0, false, fmt.Errorf("measure %s: %w", audioPath, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, _ := r.exec.RunOutput(probeCtx, r.ffmpegPath, []string{
		"-i", audioPath,
		"-hide_banner",
		"-f", "null", "-",
	})

	if m := durationPattern.FindStringSubmatch(out); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		min, _ := strconv.ParseFloat(m[2], 64)
		s, _ := strconv.ParseFloat(m[3], 64)
		frac, _ := strconv.ParseFloat("0."+m[4], 64)
		return h*3600 + min*60 + s + frac, false, nil
	}

	// Probe unavailable or unparseable: estimate from size and bitrate.
	return float64(info.Size()) * 8 / float64(r.bitrate*1000), true, nil
}

// RenderMany renders units in order into outDir, one MP3 per unit.
//
// A unit's failure is logged and recorded, and the batch continues; partial
// failure never aborts the remaining units. Only context cancellation stops
// the batch early.
func (r *Renderer) RenderMany(ctx context.Context, units []Unit, outDir string) ([]Segment, []Failure, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create audio directory: %w", err)
	}

	var segments []Segment
	var failures []Failure

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return segments, failures, err
		}

		outputPath := filepath.Join(outDir, FileName(u.Order, u.Title))
		fmt.Fprintf(r.stderr, "Rendering chapter %d: %s...\n", u.Order, u.Title)

		if err := r.Render(ctx, u.Text, outputPath); err != nil {
			fmt.Fprintf(r.stderr, "Warning: chapter %d (%s) failed: %v\n", u.Order, u.Title, err)
			failures = append(failures, Failure{Order: u.Order, Title: u.Title, Err: err})
			continue
		}

		seconds, estimated, err := r.MeasureDuration(ctx, outputPath)
		if err != nil {
			failures = append(failures, Failure{Order: u.Order, Title: u.Title, Err: err})
			continue
		}
		if estimated {
			fmt.Fprintf(r.stderr, "Warning: chapter %d duration is estimated from file size\n", u.Order)
		}

		segments = append(segments, Segment{
			Order:             u.Order,
			Title:             u.Title,
			AudioPath:         outputPath,
			DurationSeconds:   seconds,
			DurationEstimated: estimated,
		})
	}

	return segments, failures, nil
}
