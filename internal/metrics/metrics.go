// Package metrics exposes Prometheus counters and histograms for the
// ingestion, search, and benchmark subsystems, grounded on
// kadirpekel-hector/pkg/observability/metrics.go's CounterVec/HistogramVec
// shape and its nil-receiver "metrics are optional" convention: every
// Record/Observe method is a no-op on a nil *Metrics, so callers never
// need a separate enabled/disabled branch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every registered collector. A nil *Metrics is valid and
// makes every method a no-op, so disabling metrics never requires
// threading an `if enabled` check through calling code.
type Metrics struct {
	registry *prometheus.Registry

	filesIndexed     *prometheus.CounterVec
	filesSkipped     *prometheus.CounterVec
	ingestDuration   *prometheus.HistogramVec
	parseErrors      *prometheus.CounterVec
	symbolsResolved  *prometheus.CounterVec

	searchQueries    *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	searchResults    *prometheus.HistogramVec

	llmCalls         *prometheus.CounterVec
	llmCallDuration  *prometheus.HistogramVec
	llmTokensInput   *prometheus.CounterVec
	llmTokensOutput  *prometheus.CounterVec
	llmErrors        *prometheus.CounterVec

	benchPhaseDuration *prometheus.HistogramVec
	benchPhaseItems    *prometheus.CounterVec
	benchRunsActive    *prometheus.GaugeVec
}

// New creates a fresh Metrics instance registered under namespace. Pass
// enabled=false (or a nil *Metrics from a disabled config) to get the
// no-op behavior throughout the rest of the package.
func New(namespace string, enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initIngestMetrics(namespace)
	m.initSearchMetrics(namespace)
	m.initLLMMetrics(namespace)
	m.initBenchmarkMetrics(namespace)
	return m
}

func (m *Metrics) initIngestMetrics(ns string) {
	m.filesIndexed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "ingest", Name: "files_indexed_total",
		Help: "Total number of files successfully indexed.",
	}, []string{"language"})

	m.filesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "ingest", Name: "files_skipped_total",
		Help: "Total number of files skipped (size limit, excluded, binary).",
	}, []string{"reason"})

	m.ingestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "ingest", Name: "file_duration_seconds",
		Help:    "Per-file ingestion duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to 8s
	}, []string{"language"})

	m.parseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "ingest", Name: "parse_errors_total",
		Help: "Total number of parse failures during ingestion.",
	}, []string{"language"})

	m.symbolsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "ingest", Name: "symbols_resolved_total",
		Help: "Total number of cross-file symbol references resolved.",
	}, []string{"kind"})

	m.registry.MustRegister(m.filesIndexed, m.filesSkipped, m.ingestDuration,
		m.parseErrors, m.symbolsResolved)
}

func (m *Metrics) initSearchMetrics(ns string) {
	m.searchQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "search", Name: "queries_total",
		Help: "Total number of search queries served.",
	}, []string{"use_case"})

	m.searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "search", Name: "query_duration_seconds",
		Help:    "Search query latency in seconds, end to end.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
	}, []string{"use_case"})

	m.searchResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "search", Name: "results_returned",
		Help:    "Number of results returned per query.",
		Buckets: prometheus.LinearBuckets(0, 5, 11), // 0..50
	}, []string{"use_case"})

	m.registry.MustRegister(m.searchQueries, m.searchDuration, m.searchResults)
}

func (m *Metrics) initLLMMetrics(ns string) {
	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "calls_total",
		Help: "Total number of LLM/embedding calls.",
	}, []string{"model", "op"})

	m.llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "llm", Name: "call_duration_seconds",
		Help:    "LLM/embedding call duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to 400s
	}, []string{"model", "op"})

	m.llmTokensInput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "tokens_input_total",
		Help: "Total input tokens consumed.",
	}, []string{"model"})

	m.llmTokensOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "tokens_output_total",
		Help: "Total output tokens generated.",
	}, []string{"model"})

	m.llmErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "llm", Name: "errors_total",
		Help: "Total LLM/embedding errors, by §7 error kind.",
	}, []string{"model", "error_type"})

	m.registry.MustRegister(m.llmCalls, m.llmCallDuration, m.llmTokensInput,
		m.llmTokensOutput, m.llmErrors)
}

func (m *Metrics) initBenchmarkMetrics(ns string) {
	m.benchPhaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "benchmark", Name: "phase_duration_seconds",
		Help:    "Benchmark phase wall-clock duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~2.3h
	}, []string{"phase"})

	m.benchPhaseItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "benchmark", Name: "phase_items_total",
		Help: "Per-phase item completions, split by success/failure.",
	}, []string{"phase", "outcome"})

	m.benchRunsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Subsystem: "benchmark", Name: "runs_active",
		Help: "Number of benchmark runs currently executing.",
	}, []string{"status"})

	m.registry.MustRegister(m.benchPhaseDuration, m.benchPhaseItems, m.benchRunsActive)
}

// RecordFileIndexed records one successfully indexed file.
func (m *Metrics) RecordFileIndexed(language string, d time.Duration) {
	if m == nil {
		return
	}
	m.filesIndexed.WithLabelValues(language).Inc()
	m.ingestDuration.WithLabelValues(language).Observe(d.Seconds())
}

// RecordFileSkipped records one skipped file.
func (m *Metrics) RecordFileSkipped(reason string) {
	if m == nil {
		return
	}
	m.filesSkipped.WithLabelValues(reason).Inc()
}

// RecordParseError records one parse failure.
func (m *Metrics) RecordParseError(language string) {
	if m == nil {
		return
	}
	m.parseErrors.WithLabelValues(language).Inc()
}

// RecordSymbolResolved records one resolved cross-file reference.
func (m *Metrics) RecordSymbolResolved(kind string) {
	if m == nil {
		return
	}
	m.symbolsResolved.WithLabelValues(kind).Inc()
}

// RecordSearch records one served search query.
func (m *Metrics) RecordSearch(useCase string, d time.Duration, resultCount int) {
	if m == nil {
		return
	}
	m.searchQueries.WithLabelValues(useCase).Inc()
	m.searchDuration.WithLabelValues(useCase).Observe(d.Seconds())
	m.searchResults.WithLabelValues(useCase).Observe(float64(resultCount))
}

// RecordLLMCall records one LLM or embedding call.
func (m *Metrics) RecordLLMCall(model, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(model, op).Inc()
	m.llmCallDuration.WithLabelValues(model, op).Observe(d.Seconds())
}

// RecordLLMTokens records token usage for one call.
func (m *Metrics) RecordLLMTokens(model string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmTokensInput.WithLabelValues(model).Add(float64(inputTokens))
	m.llmTokensOutput.WithLabelValues(model).Add(float64(outputTokens))
}

// RecordLLMError records one LLM/embedding error, labeled by §7 error kind.
func (m *Metrics) RecordLLMError(model, errorType string) {
	if m == nil {
		return
	}
	m.llmErrors.WithLabelValues(model, errorType).Inc()
}

// RecordBenchmarkPhase records one completed phase's duration and its
// final success/failure item split.
func (m *Metrics) RecordBenchmarkPhase(phase string, d time.Duration, succeeded, failed int) {
	if m == nil {
		return
	}
	m.benchPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	if succeeded > 0 {
		m.benchPhaseItems.WithLabelValues(phase, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.benchPhaseItems.WithLabelValues(phase, "failure").Add(float64(failed))
	}
}

// SetBenchmarkRunsActive sets the active-run gauge for a given status.
func (m *Metrics) SetBenchmarkRunsActive(status string, count int) {
	if m == nil {
		return
	}
	m.benchRunsActive.WithLabelValues(status).Set(float64(count))
}

// Handler returns the Prometheus scrape endpoint. A disabled/nil Metrics
// serves 503 rather than panicking, so wiring it into a server's mux is
// always safe.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, or nil if metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
