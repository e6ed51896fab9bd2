package enrich

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/llm"
	"github.com/helixir/paper-swipe-service/internal/observability"
)

// Fallback reasons used as metric labels.
const (
	reasonServiceFailure = "service_failure"
	reasonDisabled       = "disabled"
	reasonMissing        = "missing"
)

// DefaultCacheSize is the default number of cached annotations.
const DefaultCacheSize = 512

// Config configures an Enricher.
type Config struct {
	// CacheSize is the LRU capacity in annotations. Zero uses the default;
	// a negative value disables caching.
	CacheSize int

	// Focus steers tag selection in the prompt.
	Focus string

	// MaxTokens caps the model response. Zero uses the provider default.
	MaxTokens int
}

// Enricher annotates raw records through a Completer.
// It is safe for concurrent use.
type Enricher struct {
	completer llm.Completer
	cache     *lru.Cache[string, domain.Annotation]
	config    Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// New creates an Enricher. A nil completer makes every record use the
// service-failure fallback. metrics may be nil.
func New(completer llm.Completer, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) (*Enricher, error) {
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	e := &Enricher{
		completer: completer,
		config:    cfg,
		logger:    logger.With().Str("component", "enricher").Logger(),
		metrics:   metrics,
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, domain.Annotation](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating annotation cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Enrich returns one PaperRecord per raw record, in input order. It never
// returns fewer records than it was given.
func (e *Enricher) Enrich(ctx context.Context, raws []domain.RawRecord) []domain.PaperRecord {
	out := make([]domain.PaperRecord, 0, len(raws))
	if len(raws) == 0 {
		return out
	}

	annotations := make(map[string]domain.Annotation, len(raws))
	pending := e.collectPending(raws, annotations)

	fallbacks := map[string]int{}
	if len(pending) > 0 {
		failed, reason := e.annotate(ctx, pending, annotations)
		if failed {
			fallback := ServiceFailureAnnotation()
			for _, r := range pending {
				annotations[r.ID] = fallback
			}
			fallbacks[reason] += len(pending)
		}
	}

	for _, raw := range raws {
		a, ok := annotations[raw.ID]
		if !ok {
			paperLogger := observability.WithPaperContext(e.logger, raw.ID)
			paperLogger.Warn().Msg("no annotation returned, using fallback")
			a = MissingAnnotation(raw)
			fallbacks[reasonMissing]++
		}
		out = append(out, domain.NewPaperRecord(raw, a))
	}

	if e.metrics != nil {
		for reason, n := range fallbacks {
			e.metrics.RecordFallbackAnnotations(reason, n)
		}
	}
	return out
}

// collectPending fills annotations from the cache and returns the distinct
// records that still need the model.
func (e *Enricher) collectPending(raws []domain.RawRecord, annotations map[string]domain.Annotation) []domain.RawRecord {
	pending := make([]domain.RawRecord, 0, len(raws))
	queued := make(map[string]struct{}, len(raws))
	hits := 0

	for _, r := range raws {
		if _, done := annotations[r.ID]; done {
			continue
		}
		if _, ok := queued[r.ID]; ok {
			continue
		}
		if e.cache != nil {
			if a, ok := e.cache.Get(r.ID); ok {
				annotations[r.ID] = a
				hits++
				continue
			}
		}
		queued[r.ID] = struct{}{}
		pending = append(pending, r)
	}

	if hits > 0 && e.metrics != nil {
		e.metrics.RecordEnrichmentCacheHits(hits)
	}
	return pending
}

// annotate calls the model for pending and stores parsed annotations. It
// reports whether the call failed outright, with the fallback reason.
func (e *Enricher) annotate(ctx context.Context, pending []domain.RawRecord, annotations map[string]domain.Annotation) (bool, string) {
	if e.completer == nil {
		return true, reasonDisabled
	}

	system, prompt, err := BuildPrompt(pending, e.config.Focus)
	if err != nil {
		e.logger.Warn().Err(err).Msg("building enrichment prompt failed")
		e.recordCall(true)
		return true, reasonServiceFailure
	}

	start := time.Now()
	resp, err := e.completer.Complete(ctx, llm.Request{
		System:    system,
		Prompt:    prompt,
		MaxTokens: e.config.MaxTokens,
	})
	if err != nil {
		e.logger.Warn().
			Err(err).
			Int("papers", len(pending)).
			Str("provider", e.completer.Provider()).
			Msg("enrichment service failed, using fallback annotations")
		e.recordCall(true)
		return true, reasonServiceFailure
	}
	e.recordCall(false)

	parsed, err := ParseAnnotations(resp.Content)
	if err != nil {
		// Every entry is unparsable; records fall through to MissingAnnotation.
		e.logger.Warn().Err(err).Int("papers", len(pending)).Msg("enrichment response unparsable")
		return false, ""
	}

	matched := 0
	for _, r := range pending {
		a, ok := parsed[r.ID]
		if !ok {
			continue
		}
		annotations[r.ID] = a
		if e.cache != nil {
			e.cache.Add(r.ID, a)
		}
		matched++
	}

	e.logger.Debug().
		Int("papers", len(pending)).
		Int("matched", matched).
		Dur("duration", time.Since(start)).
		Msg("enrichment complete")
	return false, ""
}

func (e *Enricher) recordCall(failed bool) {
	if e.metrics != nil {
		e.metrics.RecordEnrichment(failed)
	}
}
