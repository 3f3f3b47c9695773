package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/wordsearch/internal/keyword"
	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/internal/search"
)

func builtEngine(t *testing.T) *search.Engine {
	t.Helper()
	e := search.NewEngine(search.StaticLoader([]keyword.Document{
		{ID: "A", Text: "the quick brown fox"},
		{ID: "B", Text: "the lazy dog"},
		{ID: "C", Text: "the quick fox jumps"},
	}))
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestShell_Run(t *testing.T) {
	in := strings.NewReader("fox fox\ncat\n\"quick fox\"\nEXIT\nthe\n")
	var out bytes.Buffer
	if err := NewShell(builtEngine(t), in, &out, 0).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		"Results:\n- A (Relevance: 2)\n- C (Relevance: 2)\n",
		"No results found.\n",
		"- C (Relevance: 1)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, Prompt); n != 4 {
		t.Errorf("prompted %d times, want 4 (exit stops the loop)", n)
	}
	if strings.Contains(got, "- B (Relevance") {
		t.Error("the query after exit must not run")
	}
	if n := strings.Count(got, "Search time: "); n != 3 {
		t.Errorf("search time printed %d times, want 3", n)
	}
}

func TestShell_RunEOFAndBlankLines(t *testing.T) {
	var out bytes.Buffer
	if err := NewShell(builtEngine(t), strings.NewReader("   \n"), &out, 5).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No results found.") {
		t.Errorf("blank query should report no results:\n%s", out.String())
	}
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, *models.SearchQuery) (*models.SearchResponse, error) {
	return nil, errors.New("index has not been built")
}

func TestShell_RunReportsErrors(t *testing.T) {
	var out bytes.Buffer
	if err := NewShell(failingSearcher{}, strings.NewReader("fox\nexit\n"), &out, 0).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Search failed: index has not been built") {
		t.Errorf("output = %q", out.String())
	}
}

func TestShell_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewShell(builtEngine(t), strings.NewReader("fox\n"), &bytes.Buffer{}, 0).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestShell_RunPrintsEveryMatch(t *testing.T) {
	docs := make([]keyword.Document, 7)
	for i := range docs {
		docs[i] = keyword.Document{ID: fmt.Sprintf("doc%d", i), Text: "fox"}
	}
	e := search.NewEngine(search.StaticLoader(docs))
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := NewShell(e, strings.NewReader("fox\n"), &out, 3).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if n := strings.Count(got, "(Relevance: 1)"); n != len(docs) {
		t.Errorf("printed %d results, want %d:\n%s", n, len(docs), got)
	}
	if !strings.Contains(got, "- doc0 (Relevance: 1)\n- doc1 (Relevance: 1)") ||
		!strings.Contains(got, "- doc6 (Relevance: 1)\n") {
		t.Errorf("results out of order:\n%s", got)
	}
}
