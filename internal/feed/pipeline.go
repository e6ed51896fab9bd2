package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/observability"
	"github.com/helixir/paper-swipe-service/internal/papersources"
)

// Batch is one fetched and enriched page.
type Batch struct {
	// Papers are the enriched records, upstream order.
	Papers []domain.PaperRecord `json:"papers"`

	// RawCount is the number of records the upstream returned before any
	// filtering. The cursor advances by exactly this much.
	RawCount int `json:"raw_count"`

	// Strategy is the query mode that produced the batch.
	Strategy domain.Strategy `json:"strategy"`

	// Query is the upstream search query.
	Query string `json:"query,omitempty"`
}

// BatchSource produces the next batch for a context and cursor. It never
// fails: upstream problems yield an empty batch.
type BatchSource interface {
	NextBatch(ctx context.Context, rc domain.RecommendationContext, cursor int) Batch
}

// Enricher turns raw records into paper records, one to one.
type Enricher interface {
	Enrich(ctx context.Context, raws []domain.RawRecord) []domain.PaperRecord
}

// Pipeline chains a RawSource and an Enricher.
type Pipeline struct {
	source   papersources.RawSource
	enricher Enricher
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

var _ BatchSource = (*Pipeline)(nil)

// NewPipeline creates a Pipeline. metrics may be nil.
func NewPipeline(source papersources.RawSource, enricher Enricher, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   source,
		enricher: enricher,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		metrics:  metrics,
	}
}

// NextBatch fetches raw records at cursor and enriches them. Records the
// context already disliked, and repeats within the page, are dropped before
// enrichment; RawCount still reports the unfiltered page size.
func (p *Pipeline) NextBatch(ctx context.Context, rc domain.RecommendationContext, cursor int) Batch {
	start := time.Now()

	raw := p.source.FetchRaw(ctx, cursor, rc)
	batch := Batch{
		RawCount: raw.Len(),
		Strategy: raw.Strategy,
		Query:    raw.Query,
	}

	fresh := dropSeenRaw(raw.Records, rc.DislikedIDs)
	if dropped := raw.Len() - len(fresh); dropped > 0 && p.metrics != nil {
		p.metrics.RecordDuplicatesDropped(dropped)
	}

	batch.Papers = p.enricher.Enrich(ctx, fresh)

	if p.metrics != nil {
		p.metrics.RecordBatchDuration(time.Since(start).Seconds())
	}
	logger := observability.WithFetchContext(p.logger, string(batch.Strategy), cursor)
	logger.Info().
		Int("raw_count", batch.RawCount).
		Int("papers", len(batch.Papers)).
		Str("proxy", raw.Via).
		Dur("duration", time.Since(start)).
		Msg("batch ready")
	return batch
}

// dropSeenRaw removes records whose id is in seen or repeats within raws.
func dropSeenRaw(raws []domain.RawRecord, seen []string) []domain.RawRecord {
	exclude := make(map[string]struct{}, len(seen)+len(raws))
	for _, id := range seen {
		exclude[id] = struct{}{}
	}
	out := make([]domain.RawRecord, 0, len(raws))
	for _, r := range raws {
		if _, ok := exclude[r.ID]; ok {
			continue
		}
		exclude[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
