package search

import (
	"strings"
	"testing"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		keys   []string
		maxLen int
		want   string
	}{
		{"short text whole", "the quick brown fox", []string{"fox"}, 160, "the quick brown fox"},
		{"disabled", "the quick brown fox", []string{"fox"}, 0, ""},
		{"empty text", "", []string{"fox"}, 10, ""},
		{"whitespace collapsed", "the  quick\n\nbrown\tfox", []string{"fox"}, 160, "the quick brown fox"},
		{"earliest key wins", "the quick brown fox", []string{"fox", "quick"}, 10, "...quick..."},
		{"no match starts at top", "lorem ipsum dolor sit amet", []string{"fox"}, 12, "lorem ipsum..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(tt.text, tt.keys, tt.maxLen); got != tt.want {
				t.Errorf("Snippet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippet_windowAroundMatch(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 50) + "the target word here " + strings.Repeat("dolor sit ", 50)
	got := Snippet(text, []string{"target"}, 40)
	if !strings.Contains(got, "target") {
		t.Fatalf("snippet %q misses the match", got)
	}
	if !strings.HasPrefix(got, ellipsis) || !strings.HasSuffix(got, ellipsis) {
		t.Errorf("snippet %q should be elided on both sides", got)
	}
	if len(got) > 40+2*len(ellipsis) {
		t.Errorf("snippet too long: %d bytes", len(got))
	}
}

func TestSnippet_phraseMatchesAcrossCaseAndLines(t *testing.T) {
	text := strings.Repeat("x ", 100) + "The Brown\nFox jumped"
	got := Snippet(text, []string{"brown fox"}, 30)
	if !strings.Contains(got, "Brown Fox") {
		t.Errorf("snippet %q misses the phrase", got)
	}
}

func TestSnippet_multibyteBoundaries(t *testing.T) {
	text := strings.Repeat("ü", 100) + " straße " + strings.Repeat("é", 100)
	got := Snippet(text, []string{"straße"}, 21)
	if !strings.Contains(got, "straße") {
		t.Errorf("snippet %q misses the match", got)
	}
	if !strings.HasPrefix(got, ellipsis) {
		t.Errorf("snippet %q should be elided", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("snippet %q split a rune", got)
		}
	}
}
