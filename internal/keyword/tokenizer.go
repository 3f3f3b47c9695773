package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxPhraseLength is the longest phrase indexed when no option overrides it.
const DefaultMaxPhraseLength = 2

// Normalize composes text to NFC and lower-cases it. Index construction and query
// parsing both go through Normalize so that lookups are exact string matches.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// A Caser keeps state between calls and must not be shared across goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(text))
}

// isWordRune reports whether r belongs to a token: letters, numbers and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize returns the normalized tokens of text in order. Any rune that is not a
// word rune separates tokens and is dropped.
func Tokenize(text string) []string {
	return splitWords(Normalize(text))
}

// splitWords splits already-normalized text into maximal word runs.
func splitWords(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !isWordRune(r)
	})
}

// Phrases returns every run of 2..maxLen consecutive tokens joined by a single space,
// ordered by start position then by length. Runs that would pass the end of tokens
// are skipped.
func Phrases(tokens []string, maxLen int) []string {
	if maxLen < 2 || len(tokens) < 2 {
		return nil
	}
	var out []string
	for i := range tokens {
		for l := 2; l <= maxLen && i+l <= len(tokens); l++ {
			out = append(out, strings.Join(tokens[i:i+l], " "))
		}
	}
	return out
}

// PhraseKey normalizes free text into the key format used for phrases: its tokens
// joined by a single space. Punctuation inside the text is dropped the same way
// Tokenize drops it.
func PhraseKey(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// Span is a token together with its byte range in the text it came from.
type Span struct {
	Token      string
	Start, End int
}

// TokenSpans is Tokenize for display purposes: it scans text as given and
// reports where in text each token lies, normalizing token by token.
// Decomposed input may therefore split differently from Tokenize.
func TokenSpans(text string) []Span {
	var spans []Span
	start := -1
	for i, r := range text {
		switch {
		case isWordRune(r) && start < 0:
			start = i
		case !isWordRune(r) && start >= 0:
			spans = append(spans, Span{Token: Normalize(text[start:i]), Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Token: Normalize(text[start:]), Start: start, End: len(text)})
	}
	return spans
}
