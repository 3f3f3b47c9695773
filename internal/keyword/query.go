package keyword

import (
	"strings"
	"unicode/utf8"
)

// Term is one search term: a single token, or a quoted phrase rendered in the same
// key format the index uses.
type Term struct {
	Text   string `json:"text"`
	Phrase bool   `json:"phrase,omitempty"`
}

// ParsedQuery is the ordered list of terms found in a raw query string. Repeated
// terms are kept; each repetition adds its own score.
type ParsedQuery struct {
	Raw   string `json:"raw"`
	Terms []Term `json:"terms"`
}

// Keys returns the index keys of the terms, in query order.
func (q ParsedQuery) Keys() []string {
	keys := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		keys[i] = t.Text
	}
	return keys
}

// Empty reports whether the query produced no terms.
func (q ParsedQuery) Empty() bool {
	return len(q.Terms) == 0
}

// String renders the terms back into query syntax.
func (q ParsedQuery) String() string {
	parts := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		if t.Phrase {
			parts[i] = `"` + t.Text + `"`
		} else {
			parts[i] = t.Text
		}
	}
	return strings.Join(parts, " ")
}

// ParseQuery turns a raw query into terms. The whole string is normalized first,
// then scanned left to right. A double quote with a matching closing quote yields
// one phrase term built from the enclosed words; a quote with no partner is dropped
// and scanning carries on over the rest of the input. Outside quotes each maximal
// run of word characters is one term. Every string parses; punctuation-only input
// simply yields no terms.
func ParseQuery(raw string) ParsedQuery {
	s := Normalize(raw)
	q := ParsedQuery{Raw: raw, Terms: make([]Term, 0, 4)}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				// Stray quote: drop it and keep scanning in word mode.
				i += size
				continue
			}
			if key := strings.Join(splitWords(s[i+1:i+1+end]), " "); key != "" {
				q.Terms = append(q.Terms, Term{Text: key, Phrase: true})
			}
			i += end + 2
		case isWordRune(r):
			j := i + size
			for j < len(s) {
				next, n := utf8.DecodeRuneInString(s[j:])
				if !isWordRune(next) {
					break
				}
				j += n
			}
			q.Terms = append(q.Terms, Term{Text: s[i:j]})
			i = j
		default:
			i += size
		}
	}
	return q
}
