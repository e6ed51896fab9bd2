// Package papersources provides the transport layer shared by paper source
// clients: a rate-limited HTTP client, an ordered proxy chain with per-proxy
// circuit breakers, and the RawSource abstraction consumed by the feed.
//
// Example usage:
//
//	client := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 1})
//	chain := papersources.NewProxyChain(
//		papersources.TransportsFromTemplates(cfg.Proxies, client),
//		papersources.ChainConfig{Validator: arxiv.ValidateFeed},
//		logger, metrics,
//	)
//	body, via, err := chain.Fetch(ctx, targetURL)
package papersources

import (
	"context"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// RawBatch is the result of one upstream fetch.
type RawBatch struct {
	// Records holds the parsed raw records in upstream order. May be empty.
	Records []domain.RawRecord

	// Strategy is the query mode used for this fetch.
	Strategy domain.Strategy

	// Query is the boolean search query sent upstream.
	Query string

	// Via names the transport that produced the response, empty on failure.
	Via string
}

// Len returns the raw (pre-deduplication) record count.
func (b RawBatch) Len() int {
	return len(b.Records)
}

// RawSource fetches raw paper records for a cursor and recommendation context.
type RawSource interface {
	// FetchRaw never fails: transport and parse failures degrade to an
	// empty batch and are logged by the implementation.
	FetchRaw(ctx context.Context, cursor int, rc domain.RecommendationContext) RawBatch

	// Name returns a human-readable name for logging and metrics.
	Name() string
}
