package papersources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// fastClient returns a client with no effective rate limit and short retries.
func fastClient(maxRetries int) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: maxRetries,
		RetryDelay: 10 * time.Millisecond,
	})
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("applies default values", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{})

		require.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.client.Timeout)
		assert.Equal(t, "Helixir-PaperSwipe/1.0", client.config.UserAgent)
		assert.Equal(t, 0, client.config.MaxRetries)
		assert.Equal(t, time.Second, client.config.RetryDelay)
		assert.Equal(t, float64(1), client.config.RateLimit)
		assert.Equal(t, 1, client.config.BurstSize)
	})

	t.Run("keeps custom config", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{
			Timeout:    15 * time.Second,
			MaxRetries: 2,
			UserAgent:  "TestAgent/1.0",
		})

		assert.Equal(t, 15*time.Second, client.client.Timeout)
		assert.Equal(t, 2, client.config.MaxRetries)
		assert.Equal(t, "TestAgent/1.0", client.config.UserAgent)
	})

	t.Run("negative retries clamp to zero", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{MaxRetries: -1})
		assert.Equal(t, 0, client.config.MaxRetries)
	})
}

func TestHTTPClient_Do(t *testing.T) {
	t.Run("sets User-Agent", func(t *testing.T) {
		var ua string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := fastClient(0).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Helixir-PaperSwipe/1.0", ua)
	})

	t.Run("retries on 503 then succeeds", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := fastClient(1).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("returns last response when retries exhausted", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := fastClient(2).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry 4xx", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := fastClient(3).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("replays POST body on retry", func(t *testing.T) {
		var bodies []string
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, strings.NewReader(`{"cursor":5}`))
		require.NoError(t, err)

		resp, err := fastClient(1).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, []string{`{"cursor":5}`, `{"cursor":5}`}, bodies)
	})

	t.Run("context canceled during retry wait", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "10")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		_, err = fastClient(1).Do(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestHTTPClient_Get(t *testing.T) {
	t.Run("returns body on 2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<feed></feed>"))
		}))
		defer server.Close()

		body, err := fastClient(0).Get(context.Background(), "direct", server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<feed></feed>", string(body))
	})

	t.Run("non-2xx is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := fastClient(0).Get(context.Background(), "corsproxy.io", server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransport)

		var te *domain.TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "corsproxy.io", te.Endpoint)
		assert.Equal(t, http.StatusForbidden, te.StatusCode)
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := server.URL
		server.Close()

		_, err := fastClient(0).Get(context.Background(), "direct", addr)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestHTTPClient_getRetryDelay(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{RetryDelay: 250 * time.Millisecond})

	tests := []struct {
		name       string
		retryAfter string
		expected   time.Duration
	}{
		{"empty", "", 250 * time.Millisecond},
		{"seconds", "3", 3 * time.Second},
		{"zero seconds", "0", 250 * time.Millisecond},
		{"invalid", "soon", 250 * time.Millisecond},
		{"past date", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}
			assert.Equal(t, tt.expected, client.getRetryDelay(resp))
		})
	}
}

func TestHTTPClient_shouldRetry(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{})

	assert.True(t, client.shouldRetry(http.StatusTooManyRequests))
	assert.True(t, client.shouldRetry(http.StatusInternalServerError))
	assert.True(t, client.shouldRetry(http.StatusGatewayTimeout))
	assert.False(t, client.shouldRetry(http.StatusOK))
	assert.False(t, client.shouldRetry(http.StatusBadRequest))
	assert.False(t, client.shouldRetry(http.StatusNotFound))
}
