package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/wordsearch/internal/keyword"
)

const ellipsis = "..."

// Snippet returns about maxLen bytes of text around the earliest occurrence
// of any key, with whitespace collapsed. Without a match it returns the start
// of text. A maxLen of zero or less disables snippets.
func Snippet(text string, keys []string, maxLen int) string {
	if maxLen <= 0 || text == "" {
		return ""
	}
	start := firstMatch(text, keys)
	if start < 0 {
		start = 0
	}
	// Leave some leading context before the match.
	from := start - maxLen/4
	if from < 0 {
		from = 0
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	if from > 0 {
		if i := strings.IndexFunc(text[from:start], unicode.IsSpace); i >= 0 {
			from += i
		}
	}
	to := from + maxLen
	if to >= len(text) {
		to = len(text)
	} else {
		for to > from && !utf8.RuneStart(text[to]) {
			to--
		}
		if i := strings.LastIndexFunc(text[from:to], unicode.IsSpace); i > start-from {
			to = from + i
		}
	}
	out := collapseSpace(text[from:to])
	if from > 0 {
		out = ellipsis + out
	}
	if to < len(text) {
		out += ellipsis
	}
	return out
}

// firstMatch returns the byte offset of the earliest key in text, or -1.
func firstMatch(text string, keys []string) int {
	if len(keys) == 0 {
		return -1
	}
	spans := keyword.TokenSpans(text)
	best := -1
	for _, key := range keys {
		words := strings.Split(key, " ")
		for i := 0; i+len(words) <= len(spans); i++ {
			if best >= 0 && spans[i].Start >= best {
				break
			}
			if matchesAt(spans, i, words) {
				best = spans[i].Start
				break
			}
		}
	}
	return best
}

func matchesAt(spans []keyword.Span, i int, words []string) bool {
	for j, w := range words {
		if spans[i+j].Token != w {
			return false
		}
	}
	return true
}

// collapseSpace trims text and folds every whitespace run into one space.
func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
