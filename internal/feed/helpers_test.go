package feed

import (
	"context"
	"strconv"
	"sync"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

func paper(id string) domain.PaperRecord {
	return domain.PaperRecord{
		ID:         id,
		Title:      "Title " + id,
		Authors:    []string{"A. Author"},
		Year:       2024,
		AbstractEN: "Abstract " + id,
		AbstractZH: "摘要 " + id,
		TLDR:       "tldr " + id,
		Tags:       []string{"agents"},
	}
}

func papers(ids ...string) []domain.PaperRecord {
	out := make([]domain.PaperRecord, len(ids))
	for i, id := range ids {
		out[i] = paper(id)
	}
	return out
}

type fetchCall struct {
	rc     domain.RecommendationContext
	cursor int
}

// fakeSource records calls and answers with next(cursor). When gate is
// non-nil each call blocks until the gate yields or is closed.
type fakeSource struct {
	mu      sync.Mutex
	calls   []fetchCall
	next    func(cursor int) Batch
	gate    chan struct{}
	started chan struct{}
	panics  bool
}

func (f *fakeSource) NextBatch(_ context.Context, rc domain.RecommendationContext, cursor int) Batch {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{rc: rc, cursor: cursor})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.panics {
		panic("upstream exploded")
	}
	if f.next == nil {
		return Batch{}
	}
	return f.next(cursor)
}

func (f *fakeSource) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

// fixedBatch always returns the same records.
func fixedBatch(ids ...string) func(int) Batch {
	return func(int) Batch {
		return Batch{Papers: papers(ids...), RawCount: len(ids), Strategy: domain.StrategyRecency}
	}
}

// pagedBatch returns five records named after the cursor.
func pagedBatch(cursor int) Batch {
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = "p" + strconv.Itoa(cursor+i)
	}
	return Batch{Papers: papers(ids...), RawCount: 5, Strategy: domain.StrategyRecency}
}
