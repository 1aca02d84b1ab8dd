// Package nlp corrects common phonetic transcription errors in voice
// commands before they reach the planner.
package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Rules are mutually exclusive; their order only matters for readability.
var rules = []rule{
	// Robot identifiers: "robot ate"/"robot eight" -> "Robot A", etc.
	{regexp.MustCompile(`(?i)robot\s+ate?\b`), "Robot A"},
	{regexp.MustCompile(`(?i)robot\s+eight\b`), "Robot A"},
	{regexp.MustCompile(`(?i)robot\s+be\b`), "Robot B"},
	{regexp.MustCompile(`(?i)robot\s+bee\b`), "Robot B"},
	{regexp.MustCompile(`(?i)robot\s+sea\b`), "Robot C"},
	{regexp.MustCompile(`(?i)robot\s+see\b`), "Robot C"},

	// Action verbs: "petrol"/"control" are frequent mis-hears of "patrol".
	{regexp.MustCompile(`(?i)\bpetrol\b`), "patrol"},
	{regexp.MustCompile(`(?i)\bcontrol\b`), "patrol"},
	{regexp.MustCompile(`(?i)\binspecter\b`), "inspect"},
}

// Normalize rewrites a raw transcript. Unmatched input passes through
// unchanged apart from lowercasing and first-rune capitalization.
func Normalize(raw string) string {
	clean := strings.ToLower(raw)
	for _, r := range rules {
		clean = r.re.ReplaceAllString(clean, r.repl)
	}
	return capitalize(clean)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
