// Package speech prepares narration text for the platform speech engine.
// It inserts `say` pause directives ([[slnc N]]) at clause, sentence, and
// paragraph boundaries, and normalizes symbols and technical loanwords so
// the engine reads them naturally.
//
// All transformations are pure ordered (pattern, replacement) passes.
// The pass order is fixed and documented on annotateRules; changing it
// changes the output, so treat it as part of the contract.
package speech

import (
	"fmt"
	"regexp"
	"strings"
)

// Pause lengths in milliseconds, by boundary class.
const (
	PauseComma      = 200
	PausePeriod     = 400
	PauseEmphatic   = 450 // exclamation and question marks
	PauseParagraph  = 700
	PauseLineBreak  = 500 // single newline followed by text
	PauseTopicShift = 500 // before a discourse marker
	PauseAfterShift = 200 // after a discourse marker
)

// Slnc renders a say silence directive for the given delay.
func Slnc(ms int) string {
	return fmt.Sprintf("[[slnc %d]]", ms)
}

// discourseMarkers are phrases that signal a topic shift and get a pause
// on both sides. Matched at word boundaries, case-sensitive: these are
// sentence-initial phrases in rewritten narration.
var discourseMarkers = []string{
	"However",
	"Meanwhile",
	"In other words",
	"By the way",
	"On the other hand",
	"In summary",
	"Moving on",
	"Next up",
}

// rule is a single pure replacement pass.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// annotateRules run in declaration order:
//
//	1. comma-class punctuation (comma, semicolon, colon) before whitespace
//	2. sentence periods before horizontal whitespace
//	3. exclamation/question marks before horizontal whitespace
//	4. blank-line paragraph breaks
//	5. single newlines followed by non-whitespace
//	6. discourse-marker phrases
//
// Punctuation rules match horizontal whitespace only so they never consume
// the newlines that rules 4 and 5 depend on. Rule 5 requires a non-newline
// character before the newline so it skips the second half of a paragraph
// break already handled by rule 4.
var annotateRules = []rule{
	{regexp.MustCompile(`([,;:])[ \t]+`), `$1 ` + Slnc(PauseComma) + ` `},
	{regexp.MustCompile(`(\.)[ \t]+`), `$1 ` + Slnc(PausePeriod) + ` `},
	{regexp.MustCompile(`([!?])[ \t]+`), `$1 ` + Slnc(PauseEmphatic) + ` `},
	{regexp.MustCompile(`\n[ \t]*\n`), "\n\n" + Slnc(PauseParagraph) + " "},
	{regexp.MustCompile(`([^\s\n])\n([^\s])`), `$1 ` + Slnc(PauseLineBreak) + "\n$2"},
	{
		regexp.MustCompile(`\b(` + strings.Join(discourseMarkers, `|`) + `)\b`),
		Slnc(PauseTopicShift) + ` $1 ` + Slnc(PauseAfterShift),
	},
}

// InsertPauses applies the pause-directive rules in their fixed order.
// Pure and deterministic: equal input always yields equal output.
func InsertPauses(text string) string {
	for _, r := range annotateRules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}

// Annotate normalizes symbols and loanwords, then inserts pause directives.
// This is the formatting step applied to every text handed to the renderer.
func Annotate(text string) string {
	return InsertPauses(NormalizeSymbols(text))
}
