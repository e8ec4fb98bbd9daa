package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDisabledReturnsNilMetrics(t *testing.T) {
	m := New("semindex", false)
	require.Nil(t, m)

	// Every method must tolerate a nil receiver.
	m.RecordFileIndexed("go", time.Millisecond)
	m.RecordFileSkipped("excluded")
	m.RecordParseError("go")
	m.RecordSymbolResolved("call")
	m.RecordSearch("navigate", time.Millisecond, 5)
	m.RecordLLMCall("gpt", "embed", time.Millisecond)
	m.RecordLLMTokens("gpt", 10, 5)
	m.RecordLLMError("gpt", "rate_limited")
	m.RecordBenchmarkPhase("extraction", time.Second, 3, 1)
	m.SetBenchmarkRunsActive("running", 2)
	require.Nil(t, m.Registry())
}

func TestDisabledHandlerServesUnavailable(t *testing.T) {
	m := New("semindex", false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, 503, rec.Code)
}

func TestEnabledMetricsExposeScrapeOutput(t *testing.T) {
	m := New("semindex", true)
	require.NotNil(t, m)
	require.NotNil(t, m.Registry())

	m.RecordFileIndexed("go", 5*time.Millisecond)
	m.RecordSearch("navigate", 2*time.Millisecond, 10)
	m.RecordBenchmarkPhase("extraction", time.Second, 4, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "semindex_ingest_files_indexed_total")
	require.Contains(t, body, "semindex_search_queries_total")
	require.Contains(t, body, "semindex_benchmark_phase_items_total")
}
