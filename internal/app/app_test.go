package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-swipe-service/internal/config"
	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/enrich"
	"github.com/helixir/paper-swipe-service/internal/feed"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v2</id>
    <published>2023-01-02T18:30:00Z</published>
    <title>Multi Agent Coordination</title>
    <summary>We study coordination. Agents cooperate.</summary>
    <author><name>Ada Lovelace</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00002v1</id>
    <published>2023-01-03T10:00:00Z</published>
    <title>Tool Use in Language Agents</title>
    <summary>Agents call tools.</summary>
    <author><name>Grace Hopper</name></author>
  </entry>
</feed>`

const chatCompletion = `{"id":"chatcmpl-1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"id\":\"2301.00001\",\"abstract_zh\":\"我们研究协调。\",\"tldr\":\"Agents coordinate.\",\"tags\":[\"agents\",\"coordination\"]}]"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func testConfig(arxivURL string) *config.Config {
	return &config.Config{
		ArXiv: config.ArXivConfig{
			BaseURL:         arxivURL,
			PageSize:        5,
			RelevanceWindow: 50,
			Timeout:         5 * time.Second,
			RateLimit:       100,
			Burst:           10,
		},
		Proxies: []string{"{raw}"},
		Breaker: config.BreakerConfig{ConsecutiveFailures: 3, Cooldown: time.Minute},
		LLM:     config.LLMConfig{Provider: config.ProviderNone, CacheSize: 16},
		Feed:    config.FeedConfig{Watermark: 3, Focus: "AI Agents"},
	}
}

func TestNewPipeline_EndToEnd(t *testing.T) {
	var arxivCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&arxivCalls, 1)
		assert.Equal(t, "0", r.URL.Query().Get("start"))
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))
		assert.Equal(t, "submittedDate", r.URL.Query().Get("sortBy"))
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer upstream.Close()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion))
	}))
	defer model.Close()

	cfg := testConfig(upstream.URL)
	cfg.LLM = config.LLMConfig{
		Provider:  "OpenAI",
		Timeout:   5 * time.Second,
		CacheSize: 16,
		OpenAI:    config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: model.URL},
	}

	pipeline, err := NewPipeline(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)

	batch := pipeline.NextBatch(context.Background(), domain.RecommendationContext{Focus: "AI Agents"}, 0)

	assert.Equal(t, int32(1), atomic.LoadInt32(&arxivCalls))
	assert.Equal(t, 2, batch.RawCount)
	assert.Equal(t, domain.StrategyRecency, batch.Strategy)
	require.Len(t, batch.Papers, 2)

	first := batch.Papers[0]
	assert.Equal(t, "2301.00001", first.ID)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "我们研究协调。", first.AbstractZH)
	assert.Equal(t, []string{"agents", "coordination"}, first.Tags)

	// Missing from the model answer: per-record fallback.
	second := batch.Papers[1]
	assert.Equal(t, "2301.00002", second.ID)
	assert.Equal(t, enrich.PlaceholderAbstractZH, second.AbstractZH)
	assert.Equal(t, "Agents call tools.", second.TLDR)
}

func TestNewPipeline_ProviderNone(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer upstream.Close()

	pipeline, err := NewPipeline(testConfig(upstream.URL), zerolog.Nop(), nil)
	require.NoError(t, err)

	batch := pipeline.NextBatch(context.Background(), domain.RecommendationContext{}, 0)

	require.Len(t, batch.Papers, 2)
	for _, p := range batch.Papers {
		assert.Equal(t, enrich.UnavailableTLDR, p.TLDR)
	}
}

func TestNewPipeline_UpstreamDownYieldsEmptyBatch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer upstream.Close()

	pipeline, err := NewPipeline(testConfig(upstream.URL), zerolog.Nop(), nil)
	require.NoError(t, err)

	m := feed.NewManager(pipeline, feed.ManagerConfig{}, zerolog.Nop(), nil)
	require.True(t, m.Start(context.Background()))
	m.Wait()

	st := m.State()
	assert.Empty(t, st.Buffer)
	assert.Zero(t, st.Cursor)
	assert.True(t, st.Exhausted)
	assert.True(t, st.CanReload())
}

func TestNewEnricher_UnknownProvider(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.LLM.Provider = "gemini"

	_, err := NewEnricher(cfg, zerolog.Nop(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported LLM provider"))
}

func TestLLMFactoryConfig(t *testing.T) {
	fc := LLMFactoryConfig(config.LLMConfig{
		Provider:    "Anthropic",
		Temperature: 0.3,
		MaxRetries:  2,
		Anthropic:   config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: "u"},
	})

	assert.Equal(t, "anthropic", fc.Provider)
	assert.Equal(t, 0.3, fc.Temperature)
	assert.Equal(t, 2, fc.MaxRetries)
	assert.Equal(t, "k", fc.Anthropic.APIKey)
	assert.Equal(t, "m", fc.Anthropic.Model)
	assert.Equal(t, "u", fc.Anthropic.BaseURL)
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig(config.LoggingConfig{Level: "debug", Format: "console", Output: "stderr", AddSource: true, TimeFormat: time.Kitchen})

	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.Equal(t, "stderr", lc.Output)
	assert.True(t, lc.AddSource)
	assert.Equal(t, time.Kitchen, lc.TimeFormat)
}
