package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/keywords"
	"github.com/helixir/paper-swipe-service/internal/papersources"
)

// NextBatchPath is the HTTP route of the fetch-next-batch entry point.
const NextBatchPath = "/api/v1/papers/next"

// MaxRequestDislikedIDs is the most disliked ids a request may carry; it
// matches the disliked_ids validation limit.
const MaxRequestDislikedIDs = 1000

// NextBatchRequest is the JSON body of a fetch-next-batch call.
type NextBatchRequest struct {
	Cursor      int      `json:"cursor" validate:"gte=0"`
	LikedTitles []string `json:"liked_titles" validate:"max=200,dive,max=1000"`
	DislikedIDs []string `json:"disliked_ids" validate:"max=1000,dive,max=100"`
	Focus       string   `json:"focus" validate:"max=200"`
}

// NextBatchResponse is the JSON answer of a fetch-next-batch call.
type NextBatchResponse struct {
	Papers     []domain.PaperRecord `json:"papers"`
	RawCount   int                  `json:"raw_count"`
	NextCursor int                  `json:"next_cursor"`
	Strategy   domain.Strategy      `json:"strategy"`
}

// RemoteSource is a BatchSource backed by a running paper swipe server,
// keeping the buffer on the client.
type RemoteSource struct {
	endpoint string
	client   *papersources.HTTPClient
	logger   zerolog.Logger
}

var _ BatchSource = (*RemoteSource)(nil)

// NewRemoteSource creates a source calling baseURL + NextBatchPath.
func NewRemoteSource(baseURL string, client *papersources.HTTPClient, logger zerolog.Logger) *RemoteSource {
	return &RemoteSource{
		endpoint: strings.TrimRight(baseURL, "/") + NextBatchPath,
		client:   client,
		logger:   logger.With().Str("component", "remote_source").Logger(),
	}
}

// NextBatch calls the server. Failures are logged and yield an empty batch.
// Only the liked titles keyword extraction reads and the most recent
// disliked ids are sent, so long sessions stay within the request limits;
// the caller still deduplicates against its full state.
func (r *RemoteSource) NextBatch(ctx context.Context, rc domain.RecommendationContext, cursor int) Batch {
	resp, err := r.call(ctx, NextBatchRequest{
		Cursor:      cursor,
		LikedTitles: lastN(rc.LikedTitles, keywords.RecentTitles),
		DislikedIDs: lastN(rc.DislikedIDs, MaxRequestDislikedIDs),
		Focus:       rc.Focus,
	})
	if err != nil {
		r.logger.Warn().Err(err).Int("cursor", cursor).Msg("remote fetch failed, returning empty batch")
		return Batch{}
	}
	return Batch{
		Papers:   resp.Papers,
		RawCount: resp.RawCount,
		Strategy: resp.Strategy,
	}
}

func (r *RemoteSource) call(ctx context.Context, body NextBatchRequest) (*NextBatchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewTransportError(r.endpoint, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(r.endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, domain.NewExternalAPIError("paper-swipe-server", resp.StatusCode, strings.TrimSpace(string(msg)), nil)
	}

	var out NextBatchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&out); err != nil {
		return nil, domain.NewMalformedResponseError(r.endpoint, err.Error())
	}
	return &out, nil
}

// lastN returns the trailing n elements of s.
func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
