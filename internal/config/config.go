// Package config provides configuration management for the paper swipe service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable prefix for every setting.
const envPrefix = "PAPERSWIPE"

// DefaultFocus is the topic label used when none is configured.
const DefaultFocus = "AI Agents"

// LLM provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Config holds all configuration for the paper swipe service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// ArXiv contains search upstream settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// Proxies is the ordered list of proxy URL templates tried per fetch.
	Proxies []string `mapstructure:"proxies"`
	// Breaker contains the per-proxy circuit breaker settings.
	Breaker BreakerConfig `mapstructure:"breaker"`
	// LLM contains enrichment model settings.
	LLM LLMConfig `mapstructure:"llm"`
	// Feed contains buffer manager settings.
	Feed FeedConfig `mapstructure:"feed"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// ArXivConfig holds search upstream configuration.
type ArXivConfig struct {
	// BaseURL is the Atom query endpoint.
	BaseURL string `mapstructure:"base_url"`
	// PageSize is max_results per request.
	PageSize int `mapstructure:"page_size"`
	// RelevanceWindow bounds the relevance-mode start offset.
	RelevanceWindow int `mapstructure:"relevance_window"`
	// RecencyQuery is the static topic query for recency mode.
	RecencyQuery string `mapstructure:"recency_query"`
	// RelevanceBaseQuery is ANDed with liked-title keywords in relevance mode.
	RelevanceBaseQuery string `mapstructure:"relevance_base_query"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Burst is the rate limiter burst size.
	Burst int `mapstructure:"burst"`
	// MaxRetries is the retry count for 429/5xx answers.
	MaxRetries int `mapstructure:"max_retries"`
}

// BreakerConfig holds per-proxy circuit breaker settings.
type BreakerConfig struct {
	// ConsecutiveFailures opens a proxy's breaker.
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
	// Cooldown is how long an open breaker skips its proxy.
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// LLMConfig holds enrichment model configuration.
type LLMConfig struct {
	// Provider is openai, anthropic or none.
	Provider string `mapstructure:"provider"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxTokens caps the response length.
	MaxTokens int `mapstructure:"max_tokens"`
	// CacheSize is the annotation LRU capacity; negative disables it.
	CacheSize int `mapstructure:"cache_size"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI ProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds per-provider settings.
type ProviderConfig struct {
	// APIKey is loaded from the environment only.
	APIKey string `mapstructure:"-"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
}

// FeedConfig holds buffer manager configuration.
type FeedConfig struct {
	// Watermark is the buffer length below which a fetch starts.
	Watermark int `mapstructure:"watermark"`
	// Focus is the static topic label sent with each fetch.
	Focus string `mapstructure:"focus"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and an optional
// config.yaml in the standard search paths.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// the standard locations and tolerates a missing file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/paper-swipe-service")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Proxies = splitProxies(cfg.Proxies)
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates API keys exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv(envPrefix + "_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv(envPrefix + "_LLM_ANTHROPIC_API_KEY")
}

// splitProxies accepts both a YAML list and a single whitespace-separated
// environment value, dropping blanks.
func splitProxies(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, p := range strings.Fields(entry) {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "paper_swipe")

	// arXiv defaults; the API asks for at most one request every few seconds.
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api/query")
	v.SetDefault("arxiv.page_size", 5)
	v.SetDefault("arxiv.relevance_window", 50)
	v.SetDefault("arxiv.recency_query", `(cat:cs.AI OR cat:cs.CL OR cat:cs.MA) AND (all:agent OR all:agents OR all:"multi-agent")`)
	v.SetDefault("arxiv.relevance_base_query", `(all:agent OR all:LLM OR all:"language model")`)
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 1.0)
	v.SetDefault("arxiv.burst", 1)
	v.SetDefault("arxiv.max_retries", 1)

	// Proxy chain defaults, tried in order.
	v.SetDefault("proxies", []string{
		"https://api.allorigins.win/raw?url={url}",
		"https://corsproxy.io/?{url}",
		"https://api.codetabs.com/v1/proxy?quest={url}",
		"{raw}",
	})
	v.SetDefault("breaker.consecutive_failures", 3)
	v.SetDefault("breaker.cooldown", "60s")

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.cache_size", 512)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")

	// Feed defaults
	v.SetDefault("feed.watermark", 3)
	v.SetDefault("feed.focus", DefaultFocus)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Metrics.Enabled && (c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port (%d)", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate upstream paging
	if c.ArXiv.BaseURL == "" {
		return fmt.Errorf("arxiv base_url is required")
	}
	if c.ArXiv.PageSize <= 0 {
		return fmt.Errorf("arxiv page_size must be positive")
	}
	if c.ArXiv.RelevanceWindow < c.ArXiv.PageSize {
		return fmt.Errorf("arxiv relevance_window (%d) must be >= page_size (%d)", c.ArXiv.RelevanceWindow, c.ArXiv.PageSize)
	}
	if len(c.Proxies) == 0 {
		return fmt.Errorf("at least one proxy template is required")
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("breaker consecutive_failures must be positive")
	}

	if c.Feed.Watermark <= 0 {
		return fmt.Errorf("feed watermark must be positive")
	}

	// Validate that the configured LLM provider has its required API key set.
	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_OPENAI_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	case ProviderAnthropic:
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider)
	}

	return nil
}
