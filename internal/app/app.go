// Package app assembles the fetch pipeline from configuration. Both the
// HTTP server and the in-process swipe CLI build their batch source here.
package app

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/config"
	"github.com/helixir/paper-swipe-service/internal/enrich"
	"github.com/helixir/paper-swipe-service/internal/feed"
	"github.com/helixir/paper-swipe-service/internal/llm"
	"github.com/helixir/paper-swipe-service/internal/observability"
	"github.com/helixir/paper-swipe-service/internal/papersources"
	"github.com/helixir/paper-swipe-service/internal/papersources/arxiv"
)

// LoggingConfig converts the config section to the logger's own type.
func LoggingConfig(cfg config.LoggingConfig) observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		AddSource:  cfg.AddSource,
		TimeFormat: cfg.TimeFormat,
	}
}

// LLMFactoryConfig converts the llm config section for llm.NewCompleter.
func LLMFactoryConfig(cfg config.LLMConfig) llm.FactoryConfig {
	return llm.FactoryConfig{
		Provider:    strings.ToLower(cfg.Provider),
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		},
	}
}

// NewRawSource builds the arXiv client behind the proxy chain.
func NewRawSource(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *arxiv.Client {
	client := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		BurstSize:  cfg.ArXiv.Burst,
		MaxRetries: cfg.ArXiv.MaxRetries,
	})

	chain := papersources.NewProxyChain(
		papersources.TransportsFromTemplates(cfg.Proxies, client),
		papersources.ChainConfig{
			Validator:       arxiv.ValidateFeed,
			BreakerFailures: cfg.Breaker.ConsecutiveFailures,
			BreakerCooldown: cfg.Breaker.Cooldown,
		},
		logger, metrics,
	)

	return arxiv.New(arxiv.Config{
		BaseURL:            cfg.ArXiv.BaseURL,
		PageSize:           cfg.ArXiv.PageSize,
		RelevanceWindow:    cfg.ArXiv.RelevanceWindow,
		RecencyQuery:       cfg.ArXiv.RecencyQuery,
		RelevanceBaseQuery: cfg.ArXiv.RelevanceBaseQuery,
	}, chain, nil, logger, metrics)
}

// NewEnricher builds the enrichment stage. Provider "none" yields an
// enricher that always falls back.
func NewEnricher(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*enrich.Enricher, error) {
	completer, err := llm.NewCompleter(LLMFactoryConfig(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create LLM completer: %w", err)
	}
	if completer == nil {
		logger.Warn().Msg("LLM provider disabled, cards will carry fallback annotations")
	} else {
		completer = llm.WithMetrics(completer, metrics)
		logger.Info().
			Str("provider", completer.Provider()).
			Str("model", completer.Model()).
			Msg("LLM completer configured")
	}

	enricher, err := enrich.New(completer, enrich.Config{
		CacheSize: cfg.LLM.CacheSize,
		Focus:     cfg.Feed.Focus,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("create enricher: %w", err)
	}
	return enricher, nil
}

// NewPipeline wires source, proxy chain and enrichment into a feed pipeline.
// metrics may be nil.
func NewPipeline(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*feed.Pipeline, error) {
	enricher, err := NewEnricher(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	return feed.NewPipeline(NewRawSource(cfg, logger, metrics), enricher, logger, metrics), nil
}
