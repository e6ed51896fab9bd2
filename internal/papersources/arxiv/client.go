// Package arxiv implements the paper source fetcher against the arXiv
// export API: strategy selection, query building, relay transport and Atom
// parsing.
package arxiv

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/keywords"
	"github.com/helixir/paper-swipe-service/internal/observability"
	"github.com/helixir/paper-swipe-service/internal/papersources"
)

const (
	// DefaultBaseURL is the arXiv query endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	// DefaultPageSize is the number of records requested per fetch.
	DefaultPageSize = 5

	// DefaultRelevanceWindow bounds relevance offsets to the top N results.
	DefaultRelevanceWindow = 50

	// DefaultRecencyQuery is the static topic query for the recency strategy.
	DefaultRecencyQuery = `(cat:cs.AI OR cat:cs.CL OR cat:cs.MA) AND (all:agent OR all:agents OR all:"multi-agent")`

	// DefaultRelevanceBaseQuery is ANDed with liked-title keywords for the relevance strategy.
	DefaultRelevanceBaseQuery = `(all:agent OR all:LLM OR all:"language model")`

	sortBySubmittedDate = "submittedDate"
	sortByRelevance     = "relevance"

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv fetcher.
type Config struct {
	// BaseURL is the arXiv query endpoint.
	BaseURL string

	// PageSize is the fixed number of results requested per fetch.
	PageSize int

	// RelevanceWindow is the size of the top-N window relevance cursors wrap within.
	RelevanceWindow int

	// RecencyQuery is the static topic query.
	RecencyQuery string

	// RelevanceBaseQuery is the generic agent/LLM clause for relevance queries.
	RelevanceBaseQuery string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.RelevanceWindow <= 0 {
		c.RelevanceWindow = DefaultRelevanceWindow
	}
	if c.RecencyQuery == "" {
		c.RecencyQuery = DefaultRecencyQuery
	}
	if c.RelevanceBaseQuery == "" {
		c.RelevanceBaseQuery = DefaultRelevanceBaseQuery
	}
}

// Fetcher retrieves a target URL through some route and names the route.
// *papersources.ProxyChain satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, string, error)
}

// Request is a fully built upstream query.
type Request struct {
	URL      string
	Query    string
	Start    int
	SortBy   string
	Strategy domain.Strategy
}

// Client implements papersources.RawSource for arXiv.
type Client struct {
	config   Config
	fetcher  Fetcher
	selector *StrategySelector
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Ensure Client implements RawSource interface.
var _ papersources.RawSource = (*Client)(nil)

// New creates an arXiv client. selector may be nil for a time-seeded one;
// metrics may be nil.
func New(cfg Config, fetcher Fetcher, selector *StrategySelector, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	if selector == nil {
		selector = NewStrategySelector(nil)
	}
	return &Client{
		config:   cfg,
		fetcher:  fetcher,
		selector: selector,
		logger:   logger.With().Str("component", "arxiv").Logger(),
		metrics:  metrics,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// FetchRaw chooses a strategy, queries arXiv and parses the feed. Any
// failure is logged and yields an empty batch carrying the chosen strategy.
func (c *Client) FetchRaw(ctx context.Context, cursor int, rc domain.RecommendationContext) papersources.RawBatch {
	strategy := c.selector.Choose(rc)
	req := c.BuildRequest(strategy, cursor, rc)
	logger := observability.WithFetchContext(c.logger, string(strategy), cursor)

	batch := papersources.RawBatch{Strategy: strategy, Query: req.Query}

	body, via, err := c.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("arxiv fetch failed, returning empty batch")
		c.recordFetch(strategy, 0)
		return batch
	}
	batch.Via = via

	records, err := ParseFeed(body)
	if err != nil {
		logger.Warn().Err(err).Str("proxy", via).Msg("arxiv feed unparsable, returning empty batch")
		c.recordFetch(strategy, 0)
		return batch
	}

	batch.Records = records
	c.recordFetch(strategy, len(records))
	logger.Debug().
		Str("proxy", via).
		Int("start", req.Start).
		Int("raw_count", len(records)).
		Msg("arxiv fetch complete")
	return batch
}

// BuildRequest builds the upstream URL for strategy at cursor.
// Relevance cursors are wrapped into the top-N window so repeated calls
// stay diverse; recency cursors are used directly.
func (c *Client) BuildRequest(strategy domain.Strategy, cursor int, rc domain.RecommendationContext) Request {
	if cursor < 0 {
		cursor = 0
	}

	req := Request{Strategy: strategy}
	switch strategy {
	case domain.StrategyRelevance:
		req.Query = relevanceQuery(c.config.RelevanceBaseQuery, keywords.Tokens(rc.LikedTitles))
		req.Start = cursor % c.config.RelevanceWindow
		req.SortBy = sortByRelevance
	default:
		req.Query = c.config.RecencyQuery
		req.Start = cursor
		req.SortBy = sortBySubmittedDate
	}

	params := url.Values{}
	params.Set("search_query", req.Query)
	params.Set("start", strconv.Itoa(req.Start))
	params.Set("max_results", strconv.Itoa(c.config.PageSize))
	params.Set("sortBy", req.SortBy)
	params.Set("sortOrder", "descending")

	sep := "?"
	if strings.Contains(c.config.BaseURL, "?") {
		sep = "&"
	}
	req.URL = c.config.BaseURL + sep + params.Encode()
	return req
}

// relevanceQuery ANDs the base clause with the keyword clause. With no
// usable keywords the base clause is used alone.
func relevanceQuery(base string, tokens []string) string {
	if len(tokens) == 0 {
		return base
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = "all:" + tok
	}
	return fmt.Sprintf("%s AND (%s)", base, strings.Join(terms, " OR "))
}

func (c *Client) recordFetch(strategy domain.Strategy, rawCount int) {
	if c.metrics != nil {
		c.metrics.RecordFetch(string(strategy), rawCount)
	}
}
