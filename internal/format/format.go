// Package format renders durations, chapter offsets, and artifact sizes for
// the run summary and the feed.
package format

import (
	"fmt"
	"time"
)

// Duration renders a duration as MM:SS, or HH:MM:SS from one hour up.
// This is the form podcast clients expect in itunes:duration.
func Duration(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// DurationHuman renders an episode length the way a person would say it.
// Examples: "1h12m", "2h", "38m", "45s".
func DurationHuman(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
}

// Offset renders a chapter-mark offset in milliseconds as HH:MM:SS.mmm,
// the resolution the embedded chapter table carries (TIMEBASE=1/1000).
func Offset(ms int64) string {
	s, frac := ms/1000, ms%1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", s/3600, s/60%60, s%60, frac)
}

// Size renders an artifact size for display: MB from one megabyte up,
// KB from one kilobyte, plain bytes below that.
func Size(bytes int64) string {
	const (
		kb = int64(1024)
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%d MB", bytes/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", bytes/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
