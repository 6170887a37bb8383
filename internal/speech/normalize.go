package speech

import (
	"regexp"
	"strings"
)

// symbolReplacer spells out symbols the speech engine reads poorly.
// Replacements keep surrounding spacing readable; collapsing of doubled
// spaces happens in NormalizeSymbols.
var symbolReplacer = strings.NewReplacer(
	"&", " and ",
	"%", " percent",
	"+", " plus ",
	"=", " equals ",
	"→", " to ",
	"←", " from ",
	"~", " about ",
	"—", ", ",
	"–", ", ",
	"…", "...",
)

// pronunciations maps technical loanwords and initialisms to spellings the
// engine pronounces correctly. Matched case-sensitively at word boundaries.
var pronunciations = []struct {
	term   string
	spoken string
}{
	{"API", "A P I"},
	{"CLI", "C L I"},
	{"SQL", "sequel"},
	{"JSON", "jason"},
	{"HTTP", "H T T P"},
	{"HTTPS", "H T T P S"},
	{"URL", "U R L"},
	{"UUID", "U U I D"},
	{"nginx", "engine x"},
	{"kubectl", "cube control"},
	{"GiB", "gibibytes"},
	{"MiB", "mebibytes"},
}

var pronunciationRules = buildPronunciationRules()

func buildPronunciationRules() []rule {
	rules := make([]rule, 0, len(pronunciations))
	for _, p := range pronunciations {
		rules = append(rules, rule{
			pattern:     regexp.MustCompile(`\b` + regexp.QuoteMeta(p.term) + `\b`),
			replacement: p.spoken,
		})
	}
	return rules
}

// doubledSpaces collapses runs of spaces and tabs introduced by symbol
// replacement. Newlines are preserved for the pause rules.
var doubledSpaces = regexp.MustCompile(`[ \t]{2,}`)

// NormalizeSymbols spells out symbols and loanwords for natural reading.
// Pure and deterministic; applied before pause insertion.
func NormalizeSymbols(text string) string {
	// Word-bounded so HTTP never matches inside HTTPS.
	for _, r := range pronunciationRules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	text = symbolReplacer.Replace(text)
	return doubledSpaces.ReplaceAllString(text, " ")
}
