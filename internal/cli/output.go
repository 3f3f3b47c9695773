// Package cli provides the output formats, interactive shell and HTTP
// client used by the wordsearch command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// snippetWidth bounds snippets in text output.
const snippetWidth = 200

// ParseOutputFormat returns the format named s.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		return writeResultLines(w, response)
	default:
		return writeSearchResultsText(w, response)
	}
}

// writeResultLines prints "- id (Relevance: n)" per result, or
// "No results found.".
func writeResultLines(w io.Writer, response *models.SearchResponse) error {
	if len(response.Results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	for _, r := range response.Results {
		if _, err := fmt.Fprintf(w, "- %s (Relevance: %d)\n", r.ID, r.Score); err != nil {
			return err
		}
	}
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) error {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	if len(response.Results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	for _, r := range response.Results {
		fmt.Fprintf(w, "%d. %s (Relevance: %d)\n", r.Rank, r.ID, r.Score)
		if r.Path != "" {
			fmt.Fprintf(w, "   %s\n", r.Path)
		}
		if r.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", utils.Truncate(r.Snippet, snippetWidth))
		}
	}
	if shown := len(response.Results); shown < response.Total {
		fmt.Fprintf(w, "\nShowing %d of %d.\n", shown, response.Total)
	}
	_, err := fmt.Fprintln(w)
	return err
}
