package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveSearch(t *testing.T) {
	m := New()
	m.ObserveSearch(time.Millisecond, 3, CacheMiss, nil)
	m.ObserveSearch(time.Millisecond, 0, CacheHit, nil)
	m.ObserveSearch(time.Millisecond, 0, CacheDisabled, errors.New("boom"))

	tests := map[string]float64{"match": 1, "zero_result": 1, "error": 1}
	for outcome, want := range tests {
		if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues(outcome)); got != want {
			t.Errorf("searches_total{outcome=%q} = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.CollectAndCount(m.SearchLatency); got != 2 {
		t.Errorf("latency series = %d, want 2 (errors are not timed)", got)
	}
}

func TestMetrics_ObserveBuild(t *testing.T) {
	m := New()
	m.ObserveBuild(time.Second, 10, 120, 0, nil)
	m.ObserveBuild(time.Second, 8, 100, 2, nil)
	m.ObserveBuild(time.Second, 0, 0, 0, errors.New("walk failed"))

	for status, want := range map[string]float64{"ok": 1, "partial": 1, "error": 1} {
		if got := testutil.ToFloat64(m.BuildsTotal.WithLabelValues(status)); got != want {
			t.Errorf("index_builds_total{status=%q} = %v, want %v", status, got, want)
		}
	}
	// A failed build leaves the gauges describing the last good index.
	if got := testutil.ToFloat64(m.IndexedDocuments); got != 8 {
		t.Errorf("index_documents = %v, want 8", got)
	}
	if got := testutil.ToFloat64(m.SkippedDocuments); got != 2 {
		t.Errorf("index_skipped_documents = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.IndexKeys); got != 100 {
		t.Errorf("index_keys = %v, want 100", got)
	}
}

func TestMetrics_nilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSearch(time.Millisecond, 1, CacheHit, nil)
	m.ObserveBuild(time.Millisecond, 1, 1, 0, nil)
	m.ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
}

func TestMetrics_HandlerServesOwnRegistry(t *testing.T) {
	a, b := New(), New()
	a.ObserveRequest(http.MethodGet, "/api/v1/search", 0, time.Millisecond)
	b.ObserveRequest(http.MethodPost, "/api/v1/reindex", http.StatusAccepted, time.Millisecond)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	if !strings.Contains(out, `wordsearch_http_requests_total{method="GET",route="/api/v1/search",status="200"} 1`) {
		t.Errorf("missing request counter in:\n%s", out)
	}
	if strings.Contains(out, "/api/v1/reindex") {
		t.Error("registries should not share series")
	}
	if !strings.Contains(out, "go_goroutines") {
		t.Error("runtime collector should be registered")
	}
}
