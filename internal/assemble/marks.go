package assemble

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Mark is a chapter marker in the combined episode. Times are absolute
// offsets from the start of the episode, in milliseconds.
type Mark struct {
	Title   string
	StartMs int64
	EndMs   int64
}

// ComputeMarks derives chapter markers from per-unit durations. The first
// chapter starts at zero; each subsequent chapter starts where the previous
// one ended plus the inter-chapter pause. A chapter ends at its start plus
// its own duration.
func ComputeMarks(units []Unit, pauseMs int64) []Mark {
	marks := make([]Mark, len(units))
	var start int64
	for i, u := range units {
		end := start + int64(math.Round(u.DurationSeconds*1000))
		marks[i] = Mark{Title: u.Title, StartMs: start, EndMs: end}
		start = end + pauseMs
	}
	return marks
}

// WriteFFMetadata emits the marks as an ffmetadata chapter track, one
// [CHAPTER] section per mark with a millisecond timebase.
func WriteFFMetadata(w io.Writer, marks []Mark) error {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	for _, m := range marks {
		fmt.Fprintf(&b, "[CHAPTER]\nTIMEBASE=1/1000\nSTART=%d\nEND=%d\ntitle=%s\n",
			m.StartMs, m.EndMs, escapeMetaValue(m.Title))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// escapeMetaValue backslash-escapes the characters the ffmetadata format
// reserves. Titles are otherwise written as-is; shaping for filenames is a
// separate concern.
func escapeMetaValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '=', ';', '#', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString("\\\n")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
