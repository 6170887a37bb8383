package template

import (
	"errors"
	"fmt"
)

// ErrUnknown indicates an invalid style name was specified.
var ErrUnknown = errors.New("unknown narration style")

// Style name constants.
// Use these instead of string literals for compile-time safety.
const (
	Conversational = "conversational"
	Lecture        = "lecture"
	Summary        = "summary"
)

// ---------------------------------------------------------------------------
// Name type - represents a validated narration style
// ---------------------------------------------------------------------------

// Name represents a validated narration style name.
// Zero value is invalid and must not be used with Prompt().
// Use ParseName to create from user input, or the pre-parsed constants.
type Name struct {
	name string
}

// Pre-parsed style name constants for use in code.
var (
	ConversationalName = Name{name: Conversational}
	LectureName        = Name{name: Lecture}
	SummaryName        = Name{name: Summary}
)

// ParseName validates and parses a style name string.
// Returns ErrUnknown if the name is not recognized.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, fmt.Errorf("style name cannot be empty: %w", ErrUnknown)
	}
	if _, ok := styles[s]; !ok {
		return Name{}, fmt.Errorf("unknown style %q: %w", s, ErrUnknown)
	}
	return Name{name: s}, nil
}

// MustParseName parses a style name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the style name string.
// Returns empty string for zero value.
func (n Name) String() string {
	return n.name
}

// IsZero returns true if this is the zero value (no style set).
func (n Name) IsZero() bool {
	return n.name == ""
}

// Prompt returns the system prompt for this narration style.
// Panics if called on zero value.
func (n Name) Prompt() string {
	if n.name == "" {
		panic("template.Name.Prompt called on zero value")
	}
	return styles[n.name]
}

// styleOrder defines the canonical order for Names().
// Used for CLI help and error messages.
var styleOrder = []string{
	Conversational,
	Lecture,
	Summary,
}

// styles maps style names to their prompt strings.
// Prompts are versioned with the binary; update requires rebuild.
var styles = map[string]string{
	Conversational: conversationalPrompt,
	Lecture:        lecturePrompt,
	Summary:        summaryPrompt,
}

// Names returns the list of available style names in stable order.
func Names() []string {
	result := make([]string, len(styleOrder))
	copy(result, styleOrder)
	return result
}

// Narration prompts in English.
// These instruct the LLM how to turn a written chapter into speakable
// narration. They are system prompts; the chapter text goes in as the user
// message. The contextual-continuation instructions for chunked chapters
// are appended by the rewrite package, not here.

const conversationalPrompt = `You turn a written book chapter into a podcast narration script for a single narrator.

Rules:
- Rewrite in a relaxed, conversational register, as if explaining to a colleague
- One speaker only; never invent dialogue or a second voice
- Plain spoken prose: no markdown, no headings, no lists, no code blocks
- Describe code and diagrams in words instead of reading symbols aloud
- Spell out things a listener cannot see ("the function takes two arguments" not "f(x, y)")
- Keep every technical point from the chapter; do not summarize away content
- Short sentences; natural spoken rhythm
- Do not invent content or alter meaning
- Do not announce yourself or the rewriting process`

const lecturePrompt = `You turn a written book chapter into a spoken lecture script for a single presenter.

Rules:
- Measured, instructive register, as if lecturing to a class
- One speaker only
- Plain spoken prose: no markdown, no headings, no lists, no code blocks
- Introduce each concept before its details; keep the chapter's order
- Describe code in words; never read symbols character by character
- Keep every technical point from the chapter; do not summarize away content
- Do not invent content or alter meaning
- Do not announce yourself or the rewriting process`

const summaryPrompt = `You condense a written book chapter into a short spoken summary for a single narrator.

Rules:
- Conversational register, roughly a tenth of the original length
- Cover every major point; drop examples and digressions
- Plain spoken prose: no markdown, no headings, no lists, no code blocks
- Describe code in words
- Do not invent content or alter meaning
- Do not announce yourself or the rewriting process`
