// Package chunk splits chapter text into bounded chunks for the contextual
// rewrite stage. Chunks are cut at paragraph boundaries, falling back to
// sentence boundaries for oversized paragraphs, and each chunk after the
// first carries a short overlap prefix from the previous chunk so the
// rewrite never loses boundary context.
package chunk

import (
	"regexp"
	"strings"
)

// DefaultMaxSize is the default chunk size budget in bytes.
// Roughly 1K tokens of prose, well inside any chat model's context window
// once the prompt and the previous chunk's output are added.
const DefaultMaxSize = 4000

// overlapDivisor caps the overlap prefix at maxSize/overlapDivisor bytes.
const overlapDivisor = 10

// Chunk is a bounded slice of one chapter's text.
// Text is a verbatim slice of the original input: concatenating the Text of
// all chunks in order reproduces the input exactly. OverlapPrefix is trailing
// text from the previous chunk, carried separately as context only.
type Chunk struct {
	Index         int
	Text          string
	OverlapPrefix string
}

// paragraphSep matches a blank-line paragraph separator.
var paragraphSep = regexp.MustCompile(`\n[ \t]*\n`)

// sentenceEnd matches a sentence-terminal position: terminal punctuation
// (optionally followed by a closing quote or parenthesis) then whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?。！？]+["')\]]?\s+`)

// Split divides text into ordered chunks of at most maxSize bytes.
// Cuts happen only at paragraph boundaries, or at sentence boundaries when a
// single paragraph exceeds maxSize. A sentence that alone exceeds maxSize is
// emitted verbatim as its own chunk. Empty or whitespace-only text yields nil.
func Split(text string, maxSize int) []Chunk {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxSize {
		return []Chunk{{Index: 0, Text: text}}
	}

	maxOverlap := maxSize / overlapDivisor

	var chunks []Chunk
	var overlap string

	// append closes the current chunk and computes the overlap carried into
	// the next one from the given tail unit (last paragraph or sentence).
	appendChunk := func(text, tailUnit string) {
		chunks = append(chunks, Chunk{
			Index:         len(chunks),
			Text:          text,
			OverlapPrefix: overlap,
		})
		overlap = tail(tailUnit, maxOverlap)
	}

	var cur strings.Builder
	var lastUnit string

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		appendChunk(cur.String(), lastUnit)
		cur.Reset()
	}

	for _, unit := range splitUnits(text, paragraphSep) {
		if len(unit) > maxSize {
			// Oversized paragraph: close what we have, then pack its
			// sentences greedily, carrying the last sentence as overlap.
			flush()
			sentences := splitUnits(unit, sentenceEnd)
			if len(sentences) <= 1 {
				// No sentence boundary to cut at. Emit verbatim.
				appendChunk(unit, unit)
				continue
			}
			for _, s := range sentences {
				if cur.Len() > 0 && cur.Len()+len(s) > maxSize {
					flush()
				}
				cur.WriteString(s)
				lastUnit = s
			}
			flush()
			continue
		}

		if cur.Len() > 0 && cur.Len()+len(unit) > maxSize {
			flush()
		}
		cur.WriteString(unit)
		lastUnit = unit
	}
	flush()

	return chunks
}

// splitUnits cuts text into verbatim segments ending after each separator
// match, so that concatenating the segments reproduces text exactly.
// For paragraphs the separator is the blank line itself (kept with the
// preceding paragraph); for sentences it is the terminal punctuation plus
// trailing whitespace.
func splitUnits(text string, sep *regexp.Regexp) []string {
	var units []string
	start := 0
	for _, loc := range sep.FindAllStringIndex(text, -1) {
		units = append(units, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		units = append(units, text[start:])
	}
	return units
}

// tail returns the last at-most-n bytes of s, trimmed to avoid starting
// mid-word where possible.
func tail(s string, n int) string {
	s = strings.TrimRight(s, " \t\n")
	if len(s) <= n {
		return s
	}
	t := s[len(s)-n:]
	// Drop a leading partial word.
	if i := strings.IndexAny(t, " \t\n"); i >= 0 && i < len(t)-1 {
		t = t[i+1:]
	}
	return t
}
