package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/wordsearch/internal/models"
)

// Prompt is printed before each shell query.
const Prompt = "Enter your search query (or type 'exit'): "

// Searcher runs one query. *search.Engine and *Client implement it.
type Searcher interface {
	Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error)
}

// Shell reads queries line by line and prints ranked results until "exit"
// (any case) or end of input.
type Shell struct {
	searcher Searcher
	in       io.Reader
	out      io.Writer
	pageSize int
}

// NewShell returns a shell over searcher. Every match is printed; pageSize
// is how many results are fetched per request.
func NewShell(searcher Searcher, in io.Reader, out io.Writer, pageSize int) *Shell {
	if pageSize <= 0 {
		pageSize = models.MaxLimit
	}
	return &Shell{searcher: searcher, in: in, out: out, pageSize: pageSize}
}

// Run processes queries until exit, end of input or ctx is done. A failing
// query is reported and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			return nil
		}
		s.query(ctx, line)
	}
}

func (s *Shell) query(ctx context.Context, line string) {
	start := time.Now()
	resp, err := s.searchAll(ctx, line)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(s.out, "Search failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Search time: %.2f seconds\n", elapsed.Seconds())
	if len(resp.Results) > 0 {
		fmt.Fprintln(s.out, "Results:")
	}
	_ = writeResultLines(s.out, resp)
}

// searchAll fetches pages until every match has been collected.
func (s *Shell) searchAll(ctx context.Context, line string) (*models.SearchResponse, error) {
	resp, err := s.searcher.Search(ctx, &models.SearchQuery{Query: line, Limit: s.pageSize})
	if err != nil {
		return nil, err
	}
	for len(resp.Results) < resp.Total {
		next, err := s.searcher.Search(ctx, &models.SearchQuery{
			Query:  line,
			Limit:  s.pageSize,
			Offset: len(resp.Results),
		})
		if err != nil {
			return nil, err
		}
		if len(next.Results) == 0 {
			break
		}
		resp.Results = append(resp.Results, next.Results...)
	}
	return resp, nil
}
