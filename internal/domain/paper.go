package domain

import (
	"strconv"
	"strings"
	"time"
)

// RawRecord is a paper as parsed from the search upstream, before enrichment.
type RawRecord struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.00001").
	ID string `json:"id"`
	// Title is the whitespace-normalized title.
	Title string `json:"title"`
	// Abstract is the English abstract as published.
	Abstract string `json:"summary"`
	// Published is the raw publication timestamp ("2023-01-15T18:30:00Z").
	Published string `json:"published"`
	// Authors lists author names in feed order.
	Authors []string `json:"authors"`
}

// Year returns the publication year parsed from Published, or 0 when unknown.
func (r RawRecord) Year() int {
	if r.Published == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, r.Published); err == nil {
		return t.Year()
	}
	if len(r.Published) >= 4 {
		if y, err := strconv.Atoi(r.Published[:4]); err == nil {
			return y
		}
	}
	return 0
}

// PaperRecord is an enriched paper ready to be shown as a card.
// Records are never mutated after creation.
type PaperRecord struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       int      `json:"year"`
	AbstractEN string   `json:"abstract_en"`
	AbstractZH string   `json:"abstract_zh"`
	TLDR       string   `json:"tldr"`
	Tags       []string `json:"tags"`
}

// Annotation is the enrichment produced for a single paper.
type Annotation struct {
	AbstractZH string
	TLDR       string
	Tags       []string
}

// NewPaperRecord merges a raw record with its annotation.
// Slices are copied so the record does not alias caller-owned memory.
func NewPaperRecord(raw RawRecord, a Annotation) PaperRecord {
	return PaperRecord{
		ID:         raw.ID,
		Title:      raw.Title,
		Authors:    append([]string(nil), raw.Authors...),
		Year:       raw.Year(),
		AbstractEN: raw.Abstract,
		AbstractZH: a.AbstractZH,
		TLDR:       a.TLDR,
		Tags:       append([]string(nil), a.Tags...),
	}
}

// RecommendationContext carries the user's signals into a fetch.
type RecommendationContext struct {
	// LikedTitles is ordered oldest first; recency drives keyword extraction.
	LikedTitles []string `json:"liked_titles"`
	// DislikedIDs is recorded but not used for ranking.
	DislikedIDs []string `json:"disliked_ids"`
	// Focus is a static topic label.
	Focus string `json:"focus"`
}

// HasLikes reports whether the user liked anything yet.
func (c RecommendationContext) HasLikes() bool {
	return len(c.LikedTitles) > 0
}

// Strategy is one of the two mutually exclusive query modes of the source fetcher.
type Strategy string

const (
	// StrategyRecency queries a static topic sorted by submission date.
	StrategyRecency Strategy = "recency"
	// StrategyRelevance queries topic terms AND keywords from liked titles, sorted by relevance.
	StrategyRelevance Strategy = "relevance"
)

// SwipeDirection is a swipe event emitted by the presentation layer.
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "LEFT"
	SwipeRight SwipeDirection = "RIGHT"
)

// ParseSwipeDirection parses a direction case-insensitively.
func ParseSwipeDirection(s string) (SwipeDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SwipeLeft):
		return SwipeLeft, nil
	case string(SwipeRight):
		return SwipeRight, nil
	default:
		return "", NewValidationError("direction", "must be LEFT or RIGHT")
	}
}
