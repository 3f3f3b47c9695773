package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hyperjump/wordsearch/internal/keyword"
	"github.com/hyperjump/wordsearch/internal/metrics"
	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/internal/search"
	"github.com/hyperjump/wordsearch/internal/storage"
)

var testDocs = []keyword.Document{
	{ID: "notes/fox.txt", Text: "the quick brown fox"},
	{ID: "dog.txt", Text: "the lazy dog"},
	{ID: "jumps.txt", Text: "the quick fox jumps"},
}

func newTestServer(t *testing.T, build bool, opts ...Option) (*Server, *search.Engine) {
	t.Helper()
	engine := search.NewEngine(search.StaticLoader(testDocs))
	if build {
		if _, err := engine.Rebuild(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return NewServer(engine, "localhost:0", opts...), engine
}

func do(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) models.SearchResponse {
	t.Helper()
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func ids(resp models.SearchResponse) []string {
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.ID
	}
	return out
}

func TestHandleSearch_post(t *testing.T) {
	srv, _ := newTestServer(t, true)
	body, _ := json.Marshal(models.SearchQuery{Query: `"quick brown" fox`})
	w := do(t, srv, http.MethodPost, "/api/v1/search", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	resp := decodeSearch(t, w)
	if diff := cmp.Diff([]string{"notes/fox.txt", "jumps.txt"}, ids(resp)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if resp.Results[0].Score != 2 || resp.Total != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleSearch_get(t *testing.T) {
	srv, _ := newTestServer(t, true)
	w := do(t, srv, http.MethodGet, "/api/v1/search?q=the&limit=1&offset=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeSearch(t, w)
	if diff := cmp.Diff([]string{"jumps.txt"}, ids(resp)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if resp.Total != 3 || resp.Results[0].Rank != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleSearch_errors(t *testing.T) {
	ready, _ := newTestServer(t, true)
	notReady, _ := newTestServer(t, false)
	tests := []struct {
		name   string
		srv    *Server
		method string
		target string
		body   []byte
		want   int
	}{
		{"malformed body", ready, http.MethodPost, "/api/v1/search", []byte("{"), http.StatusBadRequest},
		{"missing q", ready, http.MethodGet, "/api/v1/search", nil, http.StatusBadRequest},
		{"bad limit", ready, http.MethodGet, "/api/v1/search?q=fox&limit=ten", nil, http.StatusBadRequest},
		{"bad offset", ready, http.MethodGet, "/api/v1/search?q=fox&offset=x", nil, http.StatusBadRequest},
		{"not built", notReady, http.MethodGet, "/api/v1/search?q=fox", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, tt.srv, tt.method, tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d, body: %s", w.Code, tt.want, w.Body.String())
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil || out["error"] == "" {
				t.Errorf("expected an error body, got %v (%v)", out, err)
			}
		})
	}
}

func TestHandleSearch_queriesWithoutTerms(t *testing.T) {
	srv, _ := newTestServer(t, true)
	tests := []struct {
		name   string
		method string
		target string
		body   []byte
	}{
		{"blank post", http.MethodPost, "/api/v1/search", []byte(`{"query":"  "}`)},
		{"punctuation post", http.MethodPost, "/api/v1/search", []byte(`{"query":"?!"}`)},
		{"empty q", http.MethodGet, "/api/v1/search?q=", nil},
		{"blank q", http.MethodGet, "/api/v1/search?q=%20%20", nil},
		{"punctuation q", http.MethodGet, "/api/v1/search?q=%3F%21", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.target, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200, body: %s", w.Code, w.Body.String())
			}
			var resp models.SearchResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Total != 0 || len(resp.Results) != 0 {
				t.Errorf("response = %+v, want no results", resp)
			}
		})
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv, _ := newTestServer(t, true)
	for _, target := range []string{"/api/v1/documents/notes/fox.txt", "/api/v1/documents/notes%2Ffox.txt"} {
		w := do(t, srv, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d, body: %s", target, w.Code, w.Body.String())
		}
		var doc models.Document
		if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
			t.Fatal(err)
		}
		if doc.ID != "notes/fox.txt" || doc.Content != "the quick brown fox" {
			t.Errorf("%s: got %+v", target, doc)
		}
	}
	if w := do(t, srv, http.MethodGet, "/api/v1/documents/missing.txt", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing document: status %d", w.Code)
	}
}

func TestHandleReindex(t *testing.T) {
	srv, engine := newTestServer(t, false)
	w := do(t, srv, http.MethodPost, "/api/v1/reindex", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var st search.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if engine.Snapshot() == nil || st.SnapshotID != engine.Snapshot().ID {
		t.Errorf("reindex did not publish the reported snapshot: %+v", st)
	}
	if st.Index.Documents != 3 {
		t.Errorf("documents = %d, want 3", st.Index.Documents)
	}
}

func TestHandleHealth(t *testing.T) {
	for _, tt := range []struct {
		build bool
		want  string
	}{{true, "ok"}, {false, "building"}} {
		srv, _ := newTestServer(t, tt.build)
		w := do(t, srv, http.MethodGet, "/health", nil)
		var out map[string]string
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if w.Code != http.StatusOK || out["status"] != tt.want {
			t.Errorf("build=%v: got %d %v", tt.build, w.Code, out)
		}
	}
}

func TestHandleStatus(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "text.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.PutDocument(context.Background(), &models.Document{ID: "a.txt", Path: "/docs/a.txt", Content: "alpha"}); err != nil {
		t.Fatal(err)
	}
	srv, engine := newTestServer(t, true, WithStorage(store), WithDirectories([]string{"/docs"}), WithVersion("1.2.3"))
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Version         string        `json:"version"`
		Directories     []string      `json:"directories"`
		Snapshot        search.Status `json:"snapshot"`
		CachedDocuments int           `json:"cached_documents"`
		DiskUsageBytes  int64         `json:"disk_usage_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Version != "1.2.3" || out.CachedDocuments != 1 || out.Snapshot.SnapshotID != engine.Snapshot().ID {
		t.Errorf("unexpected status: %+v", out)
	}
	if out.DiskUsageBytes <= 0 {
		t.Errorf("disk_usage_bytes = %d", out.DiskUsageBytes)
	}
	if diff := cmp.Diff([]string{"/docs"}, out.Directories); diff != "" {
		t.Errorf("directories mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	srv, _ := newTestServer(t, true, WithMetrics(m))
	do(t, srv, http.MethodGet, "/api/v1/search?q=fox", nil)
	do(t, srv, http.MethodGet, "/api/v1/documents/dog.txt", nil)
	do(t, srv, http.MethodGet, "/api/v1/documents/nope.txt", nil)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/search", "200")); got != 1 {
		t.Errorf("search requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/documents/*", "404")); got != 1 {
		t.Errorf("404 document requests = %v, want 1", got)
	}

	w := do(t, srv, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "wordsearch_http_requests_total") {
		t.Errorf("metrics endpoint: status %d", w.Code)
	}
}

func TestMetricsRoute_disabled(t *testing.T) {
	srv, _ := newTestServer(t, true)
	if w := do(t, srv, http.MethodGet, "/metrics", nil); w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}
