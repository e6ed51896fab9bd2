package feed

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

func newTestManager(src BatchSource, cfg ManagerConfig) *Manager {
	return NewManager(src, cfg, zerolog.Nop(), nil)
}

func TestManager_Start(t *testing.T) {
	src := &fakeSource{next: pagedBatch}
	m := newTestManager(src, ManagerConfig{Focus: "AI Agents"})

	require.True(t, m.Start(context.Background()))
	m.Wait()

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0, calls[0].cursor)
	assert.Empty(t, calls[0].rc.LikedTitles)
	assert.Equal(t, "AI Agents", calls[0].rc.Focus)

	st := m.State()
	assert.Equal(t, 5, st.Cursor)
	assert.Len(t, st.Buffer, 5)
	assert.False(t, st.Fetching)
	assert.False(t, st.Exhausted)
}

func TestManager_StartWhileFetchingIsNoop(t *testing.T) {
	src := &fakeSource{next: pagedBatch, gate: make(chan struct{})}
	m := newTestManager(src, ManagerConfig{})

	require.True(t, m.Start(context.Background()))
	assert.False(t, m.Start(context.Background()))
	assert.True(t, m.State().Fetching)

	close(src.gate)
	m.Wait()
	assert.Len(t, src.Calls(), 1)
}

// Buffer of 3 with watermark 4: one swipe drops it to 2 and triggers exactly
// one fetch. A batch of 5 already-liked records leaves the buffer at 2 and
// triggers nothing further until the next swipe.
func TestManager_WatermarkScenario(t *testing.T) {
	liked := papers("l1", "l2", "l3", "l4", "l5")

	for _, dir := range []domain.SwipeDirection{domain.SwipeLeft, domain.SwipeRight} {
		t.Run(string(dir), func(t *testing.T) {
			src := &fakeSource{next: fixedBatch("l1", "l2", "l3", "l4", "l5")}
			m := newTestManager(src, ManagerConfig{
				Watermark: 4,
				Initial:   &State{Buffer: papers("b1", "b2", "b3"), Liked: liked, Cursor: 20},
			})

			_, ok := m.Swipe(context.Background(), dir)
			require.True(t, ok)
			m.Wait()

			calls := src.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, 20, calls[0].cursor)
			assert.Len(t, calls[0].rc.LikedTitles, len(m.State().Liked))

			st := m.State()
			assert.Len(t, st.Buffer, 2)
			assert.Equal(t, 25, st.Cursor)
			assert.False(t, st.Fetching)
			assert.False(t, st.Exhausted)

			// No automatic follow-up fetch.
			time.Sleep(20 * time.Millisecond)
			m.Wait()
			assert.Len(t, src.Calls(), 1)

			// The next swipe retries.
			_, ok = m.Swipe(context.Background(), domain.SwipeLeft)
			require.True(t, ok)
			m.Wait()
			assert.Len(t, src.Calls(), 2)
			assert.Equal(t, 25, src.Calls()[1].cursor)
		})
	}
}

func TestManager_SwipeRight(t *testing.T) {
	target := domain.PaperRecord{
		ID:         "2301.00001",
		Title:      "Multi Agent Coordination",
		Authors:    []string{"Ada Lovelace"},
		Year:       2023,
		AbstractEN: "We study coordination.",
		AbstractZH: "我们研究协调。",
		TLDR:       "Coordination.",
		Tags:       []string{"agents", "coordination", "planning"},
	}
	m := newTestManager(&fakeSource{}, ManagerConfig{
		Initial: &State{Buffer: append([]domain.PaperRecord{target}, papers("n1", "n2", "n3", "n4")...)},
	})

	rec, ok := m.Swipe(context.Background(), domain.SwipeRight)
	require.True(t, ok)
	assert.Equal(t, target, rec)

	_, _ = m.Swipe(context.Background(), domain.SwipeRight)
	m.Wait()

	st := m.State()
	require.Len(t, st.Liked, 2)
	assert.Equal(t, target, st.Liked[0])
	assert.Equal(t, "n1", st.Liked[1].ID)
	assert.Equal(t, "n2", st.Buffer[0].ID)
}

func TestManager_SwipeLeftRecordsDisliked(t *testing.T) {
	m := newTestManager(&fakeSource{}, ManagerConfig{Initial: &State{Buffer: papers("a", "b", "c", "d", "e")}})

	_, _ = m.Swipe(context.Background(), domain.SwipeLeft)

	st := m.State()
	assert.Equal(t, []string{"a"}, st.Disliked)
	assert.Empty(t, st.Liked)
}

func TestManager_SwipeEmptyBuffer(t *testing.T) {
	src := &fakeSource{}
	m := newTestManager(src, ManagerConfig{})

	_, ok := m.Swipe(context.Background(), domain.SwipeRight)

	assert.False(t, ok)
	assert.Empty(t, src.Calls())
}

func TestManager_SwipeToEmptyDoesNotFetch(t *testing.T) {
	src := &fakeSource{next: pagedBatch}
	m := newTestManager(src, ManagerConfig{Watermark: 1, Initial: &State{Buffer: papers("a")}})

	_, ok := m.Swipe(context.Background(), domain.SwipeLeft)
	require.True(t, ok)
	m.Wait()

	assert.Empty(t, src.Calls())
	assert.True(t, m.State().CanReload())
}

func TestManager_TriggerWhileFetchingIsDropped(t *testing.T) {
	src := &fakeSource{next: pagedBatch, gate: make(chan struct{}), started: make(chan struct{}, 4)}
	m := newTestManager(src, ManagerConfig{Watermark: 4, Initial: &State{Buffer: papers("a", "b", "c")}})

	_, _ = m.Swipe(context.Background(), domain.SwipeLeft)
	<-src.started
	_, _ = m.Swipe(context.Background(), domain.SwipeLeft)
	assert.True(t, m.State().Fetching)

	close(src.gate)
	m.Wait()

	assert.Len(t, src.Calls(), 1)
	assert.Len(t, m.State().Buffer, 6)
}

func TestManager_ReloadIdempotent(t *testing.T) {
	src := &fakeSource{next: pagedBatch, gate: make(chan struct{})}
	liked := papers("l1")
	m := newTestManager(src, ManagerConfig{Initial: &State{Liked: liked, Cursor: 40}})

	var started int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Reload(context.Background()) {
				atomic.AddInt32(&started, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
	assert.True(t, m.State().Fetching)

	close(src.gate)
	m.Wait()

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 40, calls[0].cursor)
	assert.Equal(t, []string{"Title l1"}, calls[0].rc.LikedTitles)
	assert.Equal(t, 45, m.State().Cursor)
}

func TestManager_ReloadRequiresEmptyBuffer(t *testing.T) {
	src := &fakeSource{next: pagedBatch}
	m := newTestManager(src, ManagerConfig{Initial: &State{Buffer: papers("a")}})

	assert.False(t, m.Reload(context.Background()))
	assert.Empty(t, src.Calls())
}

func TestManager_Exhausted(t *testing.T) {
	src := &fakeSource{}
	m := newTestManager(src, ManagerConfig{})

	m.Start(context.Background())
	m.Wait()

	st := m.State()
	assert.True(t, st.Exhausted)
	assert.False(t, st.Fetching)
	assert.Equal(t, 0, st.Cursor)

	src.next = pagedBatch
	require.True(t, m.Reload(context.Background()))
	m.Wait()
	assert.False(t, m.State().Exhausted)
}

func TestManager_PanickingSourceReleasesGuard(t *testing.T) {
	src := &fakeSource{panics: true}
	m := newTestManager(src, ManagerConfig{})

	require.True(t, m.Start(context.Background()))
	m.Wait()

	st := m.State()
	assert.False(t, st.Fetching)
	assert.True(t, st.CanReload())
}

func TestManager_FetchSurvivesCallerCancel(t *testing.T) {
	src := &fakeSource{next: pagedBatch, gate: make(chan struct{})}
	m := newTestManager(src, ManagerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, m.Start(ctx))
	cancel()
	close(src.gate)
	m.Wait()

	assert.Len(t, m.State().Buffer, 5)
}

func TestManager_OnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	m := newTestManager(&fakeSource{next: pagedBatch}, ManagerConfig{
		OnChange: func(s State) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		},
	})

	m.Start(context.Background())
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Len(t, seen[0].Buffer, 5)
	assert.False(t, seen[0].Fetching)
}

// Random swipes against a source that keeps returning overlapping pages
// must never produce an id twice across buffer and liked.
func TestManager_NoDuplicateInvariant(t *testing.T) {
	overlapping := func(cursor int) Batch {
		start := cursor - 2
		if start < 0 {
			start = 0
		}
		ids := make([]string, 5)
		for i := range ids {
			ids[i] = "p" + strconv.Itoa(start+i)
		}
		return Batch{Papers: papers(ids...), RawCount: 5}
	}
	m := newTestManager(&fakeSource{next: overlapping}, ManagerConfig{Watermark: 4})
	rng := rand.New(rand.NewSource(7))

	m.Start(context.Background())
	m.Wait()
	for i := 0; i < 200; i++ {
		dir := domain.SwipeLeft
		if rng.Intn(2) == 0 {
			dir = domain.SwipeRight
		}
		if _, ok := m.Swipe(context.Background(), dir); !ok {
			m.Reload(context.Background())
		}
		m.Wait()

		st := m.State()
		seen := map[string]bool{}
		for _, p := range append(st.Buffer, st.Liked...) {
			require.False(t, seen[p.ID], "duplicate id %s at step %d", p.ID, i)
			seen[p.ID] = true
		}
	}
}
