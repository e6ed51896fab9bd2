package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/papersources"
)

func testHTTPClient() *papersources.HTTPClient {
	return papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		BurstSize: 100,
	})
}

func TestRemoteSource_NextBatch(t *testing.T) {
	var got NextBatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, NextBatchPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NextBatchResponse{
			Papers:     papers("2301.00001", "2301.00002"),
			RawCount:   5,
			NextCursor: got.Cursor + 5,
			Strategy:   domain.StrategyRelevance,
		})
	}))
	defer server.Close()

	src := NewRemoteSource(server.URL+"/", testHTTPClient(), zerolog.Nop())
	rc := domain.RecommendationContext{
		LikedTitles: []string{"Multi Agent Coordination"},
		DislikedIDs: []string{"2301.00009"},
		Focus:       "AI Agents",
	}

	batch := src.NextBatch(context.Background(), rc, 10)

	assert.Equal(t, NextBatchRequest{
		Cursor:      10,
		LikedTitles: rc.LikedTitles,
		DislikedIDs: rc.DislikedIDs,
		Focus:       "AI Agents",
	}, got)
	assert.Equal(t, 5, batch.RawCount)
	assert.Equal(t, domain.StrategyRelevance, batch.Strategy)
	require.Len(t, batch.Papers, 2)
	assert.Equal(t, paper("2301.00001"), batch.Papers[0])
}

func TestRemoteSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadRequest)
			},
			check: func(t *testing.T, err error) {
				var apiErr *domain.ExternalAPIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
				assert.Equal(t, "boom", apiErr.Message)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			src := NewRemoteSource(server.URL, testHTTPClient(), zerolog.Nop())

			_, err := src.call(context.Background(), NextBatchRequest{})
			require.Error(t, err)
			tt.check(t, err)

			batch := src.NextBatch(context.Background(), domain.RecommendationContext{}, 0)
			assert.Equal(t, Batch{}, batch)
		})
	}
}

func TestRemoteSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	src := NewRemoteSource(url, testHTTPClient(), zerolog.Nop())
	batch := src.NextBatch(context.Background(), domain.RecommendationContext{}, 0)

	assert.Empty(t, batch.Papers)
	assert.Zero(t, batch.RawCount)
}

func TestRemoteSource_LongSessionStaysWithinLimits(t *testing.T) {
	var got NextBatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(NextBatchResponse{RawCount: 5, NextCursor: got.Cursor + 5})
	}))
	defer server.Close()

	var rc domain.RecommendationContext
	for i := 0; i < 250; i++ {
		rc.LikedTitles = append(rc.LikedTitles, "Liked "+strconv.Itoa(i))
	}
	for i := 0; i < MaxRequestDislikedIDs+500; i++ {
		rc.DislikedIDs = append(rc.DislikedIDs, "d"+strconv.Itoa(i))
	}

	src := NewRemoteSource(server.URL, testHTTPClient(), zerolog.Nop())
	batch := src.NextBatch(context.Background(), rc, 0)

	assert.Equal(t, 5, batch.RawCount)
	assert.Equal(t, []string{"Liked 247", "Liked 248", "Liked 249"}, got.LikedTitles)
	require.Len(t, got.DislikedIDs, MaxRequestDislikedIDs)
	assert.Equal(t, "d500", got.DislikedIDs[0])
	assert.Equal(t, "d1499", got.DislikedIDs[MaxRequestDislikedIDs-1])
	assert.Len(t, rc.LikedTitles, 250)
}
