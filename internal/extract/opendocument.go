package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	odfBlock = regexp.MustCompile(`(?s)<text:(p|h)(?:\s[^>]*)?>.*?</text:(p|h)>`)
	odfWhole = regexp.MustCompile(`(?s)^(.*)$`)
)

// extractOpenDocument handles .odt, .odp and .ods. Headings and paragraphs
// come out in document order, one per line.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	data, ok, err := readEntry(zr, "content.xml")
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("extract OpenDocument: content.xml not found")
	}
	return strings.Join(paragraphs(string(data), odfBlock, odfWhole), "\n"), nil
}
