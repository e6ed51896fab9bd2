package arxiv

import (
	"math/rand"
	"sync"
	"time"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// StrategySelector picks the query strategy for a fetch. With no likes it
// always picks recency; otherwise a fair coin decides.
// It is safe for concurrent use.
type StrategySelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStrategySelector creates a selector drawing from rng. A nil rng is
// replaced with a time-seeded source; tests pass a deterministic one.
func NewStrategySelector(rng *rand.Rand) *StrategySelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &StrategySelector{rng: rng}
}

// Choose returns the strategy for the next fetch.
func (s *StrategySelector) Choose(rc domain.RecommendationContext) domain.Strategy {
	if !rc.HasLikes() {
		return domain.StrategyRecency
	}

	s.mu.Lock()
	heads := s.rng.Float64() < 0.5
	s.mu.Unlock()

	if heads {
		return domain.StrategyRelevance
	}
	return domain.StrategyRecency
}
