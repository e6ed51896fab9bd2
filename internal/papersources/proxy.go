package papersources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/observability"
)

const (
	// placeholderEscaped is replaced with the query-escaped target URL.
	placeholderEscaped = "{url}"

	// placeholderRaw is replaced with the target URL as-is.
	placeholderRaw = "{raw}"

	// DefaultBreakerFailures is the consecutive failure count that opens a breaker.
	DefaultBreakerFailures = 3

	// DefaultBreakerCooldown is how long an open breaker skips its transport.
	DefaultBreakerCooldown = 60 * time.Second
)

// DefaultProxyTemplates is the ordered list of public relays, ending with a
// direct request.
var DefaultProxyTemplates = []string{
	"https://api.allorigins.win/raw?url={url}",
	"https://corsproxy.io/?{url}",
	"https://api.codetabs.com/v1/proxy?quest={url}",
	"{raw}",
}

// Transport fetches a target URL through one route.
type Transport interface {
	Name() string
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

// ProxyTransport fetches through a URL-template relay.
type ProxyTransport struct {
	name     string
	template string
	client   *HTTPClient
}

var _ Transport = (*ProxyTransport)(nil)

// NewProxyTransport creates a transport for template. The name is derived
// from the template host, or "direct" for a bare "{raw}" template.
func NewProxyTransport(template string, client *HTTPClient) *ProxyTransport {
	return &ProxyTransport{
		name:     transportName(template),
		template: template,
		client:   client,
	}
}

// TransportsFromTemplates builds one ProxyTransport per template, in order.
func TransportsFromTemplates(templates []string, client *HTTPClient) []Transport {
	transports := make([]Transport, 0, len(templates))
	for _, tpl := range templates {
		tpl = strings.TrimSpace(tpl)
		if tpl == "" {
			continue
		}
		transports = append(transports, NewProxyTransport(tpl, client))
	}
	return transports
}

// Name returns the transport name.
func (p *ProxyTransport) Name() string {
	return p.name
}

// WrapURL expands the template for targetURL.
func (p *ProxyTransport) WrapURL(targetURL string) string {
	wrapped := strings.ReplaceAll(p.template, placeholderEscaped, url.QueryEscape(targetURL))
	return strings.ReplaceAll(wrapped, placeholderRaw, targetURL)
}

// Fetch requests the wrapped URL and returns the body of a 2xx response.
func (p *ProxyTransport) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	return p.client.Get(ctx, p.name, p.WrapURL(targetURL))
}

func transportName(template string) string {
	if strings.HasPrefix(template, placeholderRaw) {
		return "direct"
	}
	u, err := url.Parse(strings.NewReplacer(placeholderEscaped, "", placeholderRaw, "").Replace(template))
	if err != nil || u.Host == "" {
		return template
	}
	return u.Host
}

// Validator checks that a response body is well formed for the caller.
// A non-nil error makes the chain move on to the next transport.
type Validator func(body []byte) error

// ChainConfig configures a ProxyChain.
type ChainConfig struct {
	// Validator rejects bodies that are not well formed. Nil accepts any body.
	Validator Validator

	// BreakerFailures is the consecutive failure count that opens a breaker.
	BreakerFailures uint32

	// BreakerCooldown is how long an open breaker rejects calls before probing.
	BreakerCooldown time.Duration
}

func (c *ChainConfig) applyDefaults() {
	if c.BreakerFailures == 0 {
		c.BreakerFailures = DefaultBreakerFailures
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
}

type chainLink struct {
	transport Transport
	breaker   *gobreaker.CircuitBreaker
}

// ProxyChain tries transports in fixed order; the first well-formed response
// wins. Each transport sits behind its own circuit breaker so a relay that
// keeps failing is skipped until its cooldown elapses.
// It is safe for concurrent use.
type ProxyChain struct {
	links     []chainLink
	validator Validator
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewProxyChain creates a chain over transports. metrics may be nil.
func NewProxyChain(transports []Transport, cfg ChainConfig, logger zerolog.Logger, metrics *observability.Metrics) *ProxyChain {
	cfg.applyDefaults()
	logger = logger.With().Str("component", "proxy_chain").Logger()

	links := make([]chainLink, 0, len(transports))
	for _, t := range transports {
		failures := cfg.BreakerFailures
		links = append(links, chainLink{
			transport: t,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        t.Name(),
				MaxRequests: 1,
				Timeout:     cfg.BreakerCooldown,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= failures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					logger.Info().
						Str("proxy", name).
						Str("from", from.String()).
						Str("to", to.String()).
						Msg("proxy breaker state changed")
				},
				IsSuccessful: func(err error) bool {
					// The caller giving up says nothing about the relay.
					return err == nil || errors.Is(err, context.Canceled)
				},
			}),
		})
	}

	return &ProxyChain{
		links:     links,
		validator: cfg.Validator,
		logger:    logger,
		metrics:   metrics,
	}
}

// Len returns the number of transports in the chain.
func (c *ProxyChain) Len() int {
	return len(c.links)
}

// Fetch returns the first validated body and the name of the transport that
// produced it. When every transport fails it returns an error wrapping
// domain.ErrAllProxiesFailed.
func (c *ProxyChain) Fetch(ctx context.Context, targetURL string) ([]byte, string, error) {
	var lastErr error
	for _, link := range c.links {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		name := link.transport.Name()
		if c.metrics != nil {
			c.metrics.RecordProxyAttempt(name)
		}

		result, err := link.breaker.Execute(func() (interface{}, error) {
			body, err := link.transport.Fetch(ctx, targetURL)
			if err != nil {
				return nil, err
			}
			if c.validator != nil {
				if err := c.validator(body); err != nil {
					return nil, err
				}
			}
			return body, nil
		})
		if err != nil {
			lastErr = err
			reason := failureReason(err)
			c.logger.Warn().
				Err(err).
				Str("proxy", name).
				Str("reason", reason).
				Msg("proxy attempt failed")
			if c.metrics != nil {
				c.metrics.RecordProxyFailure(name, reason)
			}
			continue
		}

		return result.([]byte), name, nil
	}

	if c.metrics != nil {
		c.metrics.RecordAllProxiesFailed()
	}
	if lastErr == nil {
		return nil, "", domain.ErrAllProxiesFailed
	}
	return nil, "", fmt.Errorf("%w: last error: %v", domain.ErrAllProxiesFailed, lastErr)
}

// failureReason maps an attempt error to a low-cardinality metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}
