package speech

import (
	"regexp"
	"strings"
)

// maxFilenameTitle bounds the sanitized title length used in filenames.
const maxFilenameTitle = 60

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9 _-]+`)
var filenameSpaces = regexp.MustCompile(`[ _]+`)

// SanitizeTitle converts a chapter title into a filesystem-safe slug used in
// artifact filenames. Chapter titles embedded in the combined artifact's
// chapter track are NOT sanitized with this; they keep their original form
// (only container-level escaping is applied there). One rule, applied
// everywhere filenames are derived.
func SanitizeTitle(title string) string {
	s := unsafeFilenameChars.ReplaceAllString(title, "")
	s = filenameSpaces.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "_")
	if len(s) > maxFilenameTitle {
		s = s[:maxFilenameTitle]
		s = strings.Trim(s, "_")
	}
	if s == "" {
		return "chapter"
	}
	return strings.ToLower(s)
}
