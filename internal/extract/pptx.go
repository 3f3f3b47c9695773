package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	slideName      = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	drawingPara    = regexp.MustCompile(`(?s)<a:p[ >].*?</a:p>`)
	drawingTextRun = regexp.MustCompile(`(?s)<a:t(?:\s[^>]*)?>(.*?)</a:t>`)
)

// extractPPTX returns the text of every slide in slide-number order.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract PPTX: %w", err)
	}
	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n, f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var lines []string
	for _, s := range slides {
		data, _, err := readEntry(zr, s.name)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		lines = append(lines, paragraphs(string(data), drawingPara, drawingTextRun)...)
	}
	return strings.Join(lines, "\n"), nil
}
