package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	return zr, nil
}

// readEntry returns the contents of the named entry, or ok=false if the
// archive has no such entry.
func readEntry(zr *zip.Reader, name string) (data []byte, ok bool, err error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err = io.ReadAll(rc)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

var (
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	selfClosing = regexp.MustCompile(`<[^>]*/>`)
	breakTag    = regexp.MustCompile(`<(w:tab|w:br|w:cr|a:br|text:tab|text:line-break|text:s)(?:\s[^>]*)?/>`)
)

// expandBreaks rewrites tab, line-break and space elements into the
// whitespace they render as. OOXML output is wrapped in a text run of the
// same namespace so run patterns pick it up; ODF blocks are read whole.
func expandBreaks(doc string) string {
	return breakTag.ReplaceAllStringFunc(doc, func(tag string) string {
		prefix, local, _ := strings.Cut(breakTag.FindStringSubmatch(tag)[1], ":")
		ws := "\n"
		switch local {
		case "tab":
			ws = "\t"
		case "s":
			ws = " "
		}
		if prefix == "text" {
			return ws
		}
		return "<" + prefix + ":t>" + ws + "</" + prefix + ":t>"
	})
}

// innerText strips markup from an XML fragment and resolves entities.
func innerText(fragment string) string {
	return html.UnescapeString(anyTag.ReplaceAllString(fragment, ""))
}

// paragraphs returns the text of every element matched by block, with runs
// inside a block concatenated as-is. Blocks without text are dropped.
// Tabs and breaks become whitespace; other empty elements are blanked so an
// empty block cannot swallow the next.
func paragraphs(doc string, block, run *regexp.Regexp) []string {
	doc = selfClosing.ReplaceAllString(expandBreaks(doc), " ")
	var out []string
	for _, b := range block.FindAllString(doc, -1) {
		var sb strings.Builder
		for _, m := range run.FindAllStringSubmatch(b, -1) {
			sb.WriteString(innerText(m[1]))
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			out = append(out, text)
		}
	}
	return out
}
