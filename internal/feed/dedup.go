package feed

import (
	"github.com/helixir/paper-swipe-service/internal/domain"
)

// Dedup returns the records of incoming whose id is not in seen, keeping
// the first of any repeats within incoming. seen is not modified.
func Dedup(incoming []domain.PaperRecord, seen map[string]struct{}) []domain.PaperRecord {
	out := make([]domain.PaperRecord, 0, len(incoming))
	batch := make(map[string]struct{}, len(incoming))
	for _, p := range incoming {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if _, ok := batch[p.ID]; ok {
			continue
		}
		batch[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
