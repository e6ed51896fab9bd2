// Package observability provides logging, metrics, and context helpers for
// the paper swipe service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithFetchContext(logger, "relevance", 10)
//	logger.Warn().Str("proxy", "corsproxy").Msg("proxy failed")
//
// # Metrics
//
//	metrics := observability.NewMetrics("paper_swipe")
//	metrics.RecordFetch("recency", 5)
//	metrics.RecordFallbackAnnotations("service_failure", 5)
//
// A nil *Metrics is accepted everywhere a component takes one; recording is
// then skipped.
//
// # Standard Fields
//
//   - strategy: recency or relevance
//   - cursor: pagination offset of a fetch
//   - proxy: transport adapter name
//   - paper_id: arXiv identifier
//   - session_id: swipe session identifier (CLI)
//   - request_id, correlation_id: HTTP request identifiers
package observability
