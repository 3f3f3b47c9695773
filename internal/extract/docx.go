package extract

import (
	"archive/zip"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDefaultPart = "word/document.xml"
	contentTypesXML = "[Content_Types].xml"
	docxMainType    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxRun       = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	overrideTag   = regexp.MustCompile(`<Override\s[^>]*>`)
	partNameAttr  = regexp.MustCompile(`PartName="([^"]+)"`)
)

// docxMainPart finds the main document part from [Content_Types].xml,
// falling back to word/document.xml. Attribute order is not fixed.
func docxMainPart(zr *zip.Reader) string {
	data, ok, err := readEntry(zr, contentTypesXML)
	if !ok || err != nil {
		return docxDefaultPart
	}
	for _, tag := range overrideTag.FindAllString(string(data), -1) {
		if !strings.Contains(tag, `ContentType="`+docxMainType+`"`) {
			continue
		}
		if m := partNameAttr.FindStringSubmatch(tag); m != nil {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return docxDefaultPart
}

// extractDOCX returns one line per non-empty paragraph. Runs within a
// paragraph are joined without separators so split words stay whole; tabs
// and breaks inside a paragraph come out as "\t" and "\n".
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	part := docxMainPart(zr)
	data, ok, err := readEntry(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("extract DOCX: %s not found", part)
	}
	return strings.Join(paragraphs(string(data), docxParagraph, docxRun), "\n"), nil
}
