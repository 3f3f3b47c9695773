package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as text. Invalid UTF-8 becomes U+FFFD and a
// leading byte order mark is dropped.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return strings.TrimPrefix(s, "\ufeff"), nil
}
