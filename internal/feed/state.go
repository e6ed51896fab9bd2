package feed

import (
	"github.com/helixir/paper-swipe-service/internal/domain"
)

// State is the client-side buffer state. Transitions are pure: each returns
// a new State and leaves the receiver and its slices untouched.
type State struct {
	// Buffer holds not-yet-shown records; Buffer[0] is shown next.
	Buffer []domain.PaperRecord `json:"buffer"`

	// Liked holds right-swiped records in swipe order.
	Liked []domain.PaperRecord `json:"liked"`

	// Disliked holds left-swiped record ids in swipe order.
	Disliked []string `json:"disliked"`

	// Cursor is the upstream offset for the next fetch.
	Cursor int `json:"cursor"`

	// Fetching is set while a fetch is in flight.
	Fetching bool `json:"fetching"`

	// Exhausted is set when the last fetch added nothing and the buffer is empty.
	Exhausted bool `json:"exhausted"`

	// Focus is the static topic label passed to fetches.
	Focus string `json:"focus"`
}

// Context builds the recommendation context for the next fetch.
func (s State) Context() domain.RecommendationContext {
	titles := make([]string, len(s.Liked))
	for i, p := range s.Liked {
		titles[i] = p.Title
	}
	return domain.RecommendationContext{
		LikedTitles: titles,
		DislikedIDs: append([]string(nil), s.Disliked...),
		Focus:       s.Focus,
	}
}

// BeginFetch sets the in-flight flag. It reports false, leaving the state
// unchanged, when a fetch is already in flight.
func (s State) BeginFetch() (State, bool) {
	if s.Fetching {
		return s, false
	}
	next := s.clone()
	next.Fetching = true
	return next, true
}

// EndFetch clears the in-flight flag.
func (s State) EndFetch() State {
	next := s.clone()
	next.Fetching = false
	return next
}

// ApplyBatch appends the batch's records that are not already buffered,
// liked or disliked, and advances the cursor by the raw count regardless of
// how many were kept. It returns the new state and the number added.
func (s State) ApplyBatch(b Batch) (State, int) {
	next := s.clone()

	added := Dedup(b.Papers, s.seenIDs())
	next.Buffer = append(next.Buffer, added...)
	next.Cursor += b.RawCount
	next.Exhausted = len(added) == 0 && len(next.Buffer) == 0
	return next, len(added)
}

// Pop removes the front record. A right swipe moves it to Liked, a left
// swipe records its id in Disliked. ok is false when the buffer is empty.
func (s State) Pop(dir domain.SwipeDirection) (next State, rec domain.PaperRecord, ok bool) {
	if len(s.Buffer) == 0 {
		return s, domain.PaperRecord{}, false
	}

	next = s.clone()
	rec = next.Buffer[0]
	next.Buffer = next.Buffer[1:]

	switch dir {
	case domain.SwipeRight:
		next.Liked = append(next.Liked, rec)
	default:
		next.Disliked = append(next.Disliked, rec.ID)
	}
	return next, rec, true
}

// NeedsFetch reports whether the low-watermark rule asks for a fetch: idle,
// buffer non-empty and below watermark.
func (s State) NeedsFetch(watermark int) bool {
	return !s.Fetching && len(s.Buffer) > 0 && len(s.Buffer) < watermark
}

// CanReload reports whether a manual reload is allowed: buffer empty and idle.
func (s State) CanReload() bool {
	return !s.Fetching && len(s.Buffer) == 0
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (s State) Snapshot() State {
	return s.clone()
}

func (s State) seenIDs() map[string]struct{} {
	seen := make(map[string]struct{}, len(s.Buffer)+len(s.Liked)+len(s.Disliked))
	for _, p := range s.Buffer {
		seen[p.ID] = struct{}{}
	}
	for _, p := range s.Liked {
		seen[p.ID] = struct{}{}
	}
	for _, id := range s.Disliked {
		seen[id] = struct{}{}
	}
	return seen
}

// clone copies the slices so appends on the result never write into the
// receiver's backing arrays.
func (s State) clone() State {
	next := s
	next.Buffer = append([]domain.PaperRecord(nil), s.Buffer...)
	next.Liked = append([]domain.PaperRecord(nil), s.Liked...)
	next.Disliked = append([]string(nil), s.Disliked...)
	return next
}
