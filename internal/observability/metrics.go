package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper swipe service,
// organized by stage: fetch, proxy transport, enrichment, deduplication and LLM.
// All metrics are registered via promauto with the default registry.
type Metrics struct {
	// FetchesTotal counts source fetches, labeled by strategy.
	FetchesTotal *prometheus.CounterVec

	// RawRecordsFetched counts raw records parsed from the search upstream.
	RawRecordsFetched prometheus.Counter

	// EmptyFetches counts fetches that degraded to an empty raw batch.
	EmptyFetches *prometheus.CounterVec

	// ProxyAttempts counts requests routed through each transport adapter.
	ProxyAttempts *prometheus.CounterVec

	// ProxyFailures counts adapter failures, labeled by proxy and reason
	// (transport, malformed, breaker_open).
	ProxyFailures *prometheus.CounterVec

	// AllProxiesFailed counts fetches where no adapter produced a usable response.
	AllProxiesFailed prometheus.Counter

	// EnrichmentRequests counts batched enrichment calls.
	EnrichmentRequests prometheus.Counter

	// EnrichmentFailures counts enrichment calls that failed outright.
	EnrichmentFailures prometheus.Counter

	// FallbackAnnotations counts records given a fallback annotation, labeled by reason.
	FallbackAnnotations *prometheus.CounterVec

	// EnrichmentCacheHits counts records annotated from the cache.
	EnrichmentCacheHits prometheus.Counter

	// DuplicatesDropped counts fetched records discarded by deduplication.
	DuplicatesDropped prometheus.Counter

	// BatchDuration observes the fetch+enrich pipeline duration in seconds.
	BatchDuration prometheus.Histogram

	// LLMRequestsTotal counts LLM API requests, labeled by provider and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by provider, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed, labeled by provider, model, and token type.
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of source fetches by strategy",
		}, []string{"strategy"}),
		RawRecordsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raw_records_fetched_total",
			Help:      "Total number of raw paper records parsed from the search upstream",
		}),
		EmptyFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_fetches_total",
			Help:      "Total number of fetches that yielded no raw records by strategy",
		}, []string{"strategy"}),

		ProxyAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_attempts_total",
			Help:      "Total number of requests routed through each proxy",
		}, []string{"proxy"}),
		ProxyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_failures_total",
			Help:      "Total number of proxy failures by reason",
		}, []string{"proxy", "reason"}),
		AllProxiesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "all_proxies_failed_total",
			Help:      "Total number of fetches where every proxy failed",
		}),

		EnrichmentRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_requests_total",
			Help:      "Total number of batched enrichment requests",
		}),
		EnrichmentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Total number of enrichment requests that failed outright",
		}),
		FallbackAnnotations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_annotations_total",
			Help:      "Total number of records given a fallback annotation by reason",
		}, []string{"reason"}),
		EnrichmentCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_cache_hits_total",
			Help:      "Total number of records annotated from the enrichment cache",
		}),

		DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Total number of fetched records dropped as duplicates",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of the fetch and enrich pipeline in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM API requests",
		}, []string{"provider", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM API requests",
		}, []string{"provider", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM API requests in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider", "model"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of LLM tokens used",
		}, []string{"provider", "model", "token_type"}),
	}
}

// RecordFetch records a completed source fetch and its raw record count.
func (m *Metrics) RecordFetch(strategy string, rawCount int) {
	m.FetchesTotal.WithLabelValues(strategy).Inc()
	m.RawRecordsFetched.Add(float64(rawCount))
	if rawCount == 0 {
		m.EmptyFetches.WithLabelValues(strategy).Inc()
	}
}

// RecordProxyAttempt records a request routed through a proxy.
func (m *Metrics) RecordProxyAttempt(proxy string) {
	m.ProxyAttempts.WithLabelValues(proxy).Inc()
}

// RecordProxyFailure records a failed proxy attempt.
func (m *Metrics) RecordProxyFailure(proxy, reason string) {
	m.ProxyFailures.WithLabelValues(proxy, reason).Inc()
}

// RecordAllProxiesFailed records a fetch where every proxy failed.
func (m *Metrics) RecordAllProxiesFailed() {
	m.AllProxiesFailed.Inc()
}

// RecordEnrichment records a batched enrichment call and whether it failed outright.
func (m *Metrics) RecordEnrichment(failed bool) {
	m.EnrichmentRequests.Inc()
	if failed {
		m.EnrichmentFailures.Inc()
	}
}

// RecordFallbackAnnotations records records that received a fallback annotation.
func (m *Metrics) RecordFallbackAnnotations(reason string, count int) {
	if count <= 0 {
		return
	}
	m.FallbackAnnotations.WithLabelValues(reason).Add(float64(count))
}

// RecordEnrichmentCacheHits records records served from the enrichment cache.
func (m *Metrics) RecordEnrichmentCacheHits(count int) {
	m.EnrichmentCacheHits.Add(float64(count))
}

// RecordDuplicatesDropped records fetched records dropped as duplicates.
func (m *Metrics) RecordDuplicatesDropped(count int) {
	m.DuplicatesDropped.Add(float64(count))
}

// RecordBatchDuration records the duration of one fetch+enrich pipeline run.
func (m *Metrics) RecordBatchDuration(durationSeconds float64) {
	m.BatchDuration.Observe(durationSeconds)
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(provider, model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.LLMRequestsTotal.WithLabelValues(provider, model).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(provider, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(provider, model, errorType).Inc()
}
