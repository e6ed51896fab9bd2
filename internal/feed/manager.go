package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/observability"
)

// DefaultWatermark is the buffer length below which a fetch is triggered.
const DefaultWatermark = 3

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Watermark is the low-watermark buffer length. Zero uses DefaultWatermark.
	Watermark int

	// Focus is the static topic label sent with every fetch.
	Focus string

	// Initial seeds the state, e.g. to resume a session. Its Fetching flag
	// is ignored.
	Initial *State

	// OnChange is called with a snapshot after a fetch lands. It runs on
	// the fetch goroutine and must not call back into the Manager synchronously.
	OnChange func(State)
}

// Manager is the buffer controller. It guards a State with a mutex and runs
// at most one fetch at a time; triggers that arrive while a fetch is in
// flight are dropped, not queued. Fetches are never cancelled once started.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	state    State
	source   BatchSource
	config   ManagerConfig
	inflight sync.WaitGroup
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewManager creates a Manager over source. metrics may be nil.
func NewManager(source BatchSource, cfg ManagerConfig, logger zerolog.Logger, metrics *observability.Metrics) *Manager {
	if cfg.Watermark <= 0 {
		cfg.Watermark = DefaultWatermark
	}

	state := State{Focus: cfg.Focus}
	if cfg.Initial != nil {
		state = cfg.Initial.Snapshot()
		state.Fetching = false
		if state.Focus == "" {
			state.Focus = cfg.Focus
		}
	}

	return &Manager{
		state:   state,
		source:  source,
		config:  cfg,
		logger:  logger.With().Str("component", "buffer_manager").Logger(),
		metrics: metrics,
	}
}

// Start issues the startup fetch: cursor from the initial state (0 for a
// new session) and an empty liked list. It reports whether a fetch started.
func (m *Manager) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc := domain.RecommendationContext{Focus: m.state.Focus}
	return m.beginFetchLocked(ctx, rc, "startup")
}

// Swipe pops the front record in direction dir and then applies the
// low-watermark rule. It returns the swiped record, or ok=false when the
// buffer was empty.
func (m *Manager) Swipe(ctx context.Context, dir domain.SwipeDirection) (domain.PaperRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, rec, ok := m.state.Pop(dir)
	if !ok {
		return domain.PaperRecord{}, false
	}
	m.state = next

	m.logger.Debug().
		Str("paper_id", rec.ID).
		Str("direction", string(dir)).
		Int("buffer", len(m.state.Buffer)).
		Msg("swipe")

	if m.state.NeedsFetch(m.config.Watermark) {
		m.beginFetchLocked(ctx, m.state.Context(), "watermark")
	}
	return rec, true
}

// Reload fetches again with the current cursor and liked context. It is a
// no-op unless the buffer is empty and no fetch is in flight.
func (m *Manager) Reload(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.CanReload() {
		return false
	}
	return m.beginFetchLocked(ctx, m.state.Context(), "reload")
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Snapshot()
}

// Wait blocks until no fetch is in flight.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// beginFetchLocked sets the in-flight flag before any I/O and hands the
// fetch to a goroutine. m.mu must be held.
func (m *Manager) beginFetchLocked(ctx context.Context, rc domain.RecommendationContext, trigger string) bool {
	next, ok := m.state.BeginFetch()
	if !ok {
		m.logger.Debug().Str("trigger", trigger).Msg("fetch already in flight, ignoring trigger")
		return false
	}
	m.state = next
	cursor := m.state.Cursor

	m.inflight.Add(1)
	go m.runFetch(context.WithoutCancel(ctx), rc, cursor, trigger)
	return true
}

// runFetch performs one fetch and merges the result. The in-flight flag is
// cleared on every exit path, including a panicking source.
func (m *Manager) runFetch(ctx context.Context, rc domain.RecommendationContext, cursor int, trigger string) {
	var batch Batch
	logger := m.logger.With().Int("cursor", cursor).Str("trigger", trigger).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Err(fmt.Errorf("panic: %v", r)).Msg("fetch panicked")
			batch = Batch{}
		}

		m.mu.Lock()
		next, added := m.state.ApplyBatch(batch)
		m.state = next.EndFetch()
		snapshot := m.state.Snapshot()
		m.mu.Unlock()

		if dropped := len(batch.Papers) - added; dropped > 0 && m.metrics != nil {
			m.metrics.RecordDuplicatesDropped(dropped)
		}
		logger.Info().
			Str("strategy", string(batch.Strategy)).
			Int("raw_count", batch.RawCount).
			Int("added", added).
			Int("buffer", len(snapshot.Buffer)).
			Int("next_cursor", snapshot.Cursor).
			Bool("exhausted", snapshot.Exhausted).
			Msg("fetch merged")

		if m.config.OnChange != nil {
			m.config.OnChange(snapshot)
		}
		m.inflight.Done()
	}()

	batch = m.source.NextBatch(ctx, rc, cursor)
}
