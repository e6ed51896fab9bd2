package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/feed"
	"github.com/helixir/paper-swipe-service/internal/observability"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// nextBatch handles POST /api/v1/papers/next.
// It fetches and enriches one page for the given context and cursor. Upstream
// trouble degrades to an empty page; only invalid input is an error.
func (s *Server) nextBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxRequestBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req feed.NextBatchRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON request body")
			return
		}
	}
	req.Focus = strings.TrimSpace(req.Focus)

	if err := validateStruct(s.validate, req); err != nil {
		writeDomainError(w, err)
		return
	}

	rc := domain.RecommendationContext{
		LikedTitles: req.LikedTitles,
		DislikedIDs: req.DislikedIDs,
		Focus:       req.Focus,
	}
	batch := s.source.NextBatch(ctx, rc, req.Cursor)

	papers := batch.Papers
	if papers == nil {
		papers = []domain.PaperRecord{}
	}

	logger := observability.WithRequestContext(s.logger,
		observability.RequestIDFromContext(ctx),
		observability.CorrelationIDFromContext(ctx),
	)
	logger.Info().
		Int("cursor", req.Cursor).
		Int("liked", len(req.LikedTitles)).
		Str("strategy", string(batch.Strategy)).
		Int("raw_count", batch.RawCount).
		Int("papers", len(papers)).
		Msg("next batch served")

	writeJSON(w, http.StatusOK, feed.NextBatchResponse{
		Papers:     papers,
		RawCount:   batch.RawCount,
		NextCursor: req.Cursor + batch.RawCount,
		Strategy:   batch.Strategy,
	})
}

// writeDomainError maps domain errors to HTTP status codes. Internal error
// details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrAllProxiesFailed):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
