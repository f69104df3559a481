// Package measure implements two-point linear distance annotations with
// a draft-then-commit state machine.
package measure

import (
	"fmt"
	"time"

	"dicom-viewer/pkg/geometry"

	"github.com/google/uuid"
)

// SignificanceThreshold is the minimum drag length, in image pixels,
// below which a released draft is discarded instead of committed.
const SignificanceThreshold = 5.0

// Measurement is a committed two-point distance annotation. It belongs
// to exactly one frame of exactly one series.
type Measurement struct {
	ID               string           `json:"id"`
	Start            geometry.Point2D `json:"start"`
	End              geometry.Point2D `json:"end"`
	DistanceInPixels float64          `json:"distanceInPixels"`
	FrameIndex       int              `json:"frameIndex"`
	Label            string           `json:"label,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Tracker is the draft state machine: Idle (no draft) or Dragging (one
// draft, replaced on every pointer move). No other component mutates
// draft or committed geometry.
type Tracker struct {
	draft *Measurement
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Dragging reports whether a draft is in progress.
func (t *Tracker) Dragging() bool {
	return t.draft != nil
}

// Draft returns the in-progress measurement, or nil when idle.
func (t *Tracker) Draft() *Measurement {
	return t.draft
}

// Begin transitions Idle -> Dragging with start = end = p.
func (t *Tracker) Begin(p geometry.Point2D, frameIndex int) {
	t.draft = &Measurement{
		Start:      p,
		End:        p,
		FrameIndex: frameIndex,
	}
}

// Update moves the draft's end point and recomputes its distance.
// No-op when idle.
func (t *Tracker) Update(p geometry.Point2D) {
	if t.draft == nil {
		return
	}
	t.draft.End = p
	t.draft.DistanceInPixels = t.draft.Start.Distance(p)
}

// Finish transitions Dragging -> Idle. Drafts longer than the
// significance threshold are returned for the owner to persist; shorter
// drags are discarded silently.
func (t *Tracker) Finish() (*Measurement, bool) {
	d := t.draft
	t.draft = nil
	if d == nil || d.DistanceInPixels <= SignificanceThreshold {
		return nil, false
	}
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	return d, true
}

// Cancel discards any draft without committing.
func (t *Tracker) Cancel() {
	t.draft = nil
}

// Store holds committed measurements keyed by series identity, so
// switching series neither leaks nor loses annotations.
type Store struct {
	bySeries map[string][]*Measurement

	// Highest ordinal label handed out per series. Only ever grows, so
	// removing a measurement never frees its label for reuse.
	ordinals map[string]int
}

// NewStore creates an empty measurement store.
func NewStore() *Store {
	return &Store{
		bySeries: make(map[string][]*Measurement),
		ordinals: make(map[string]int),
	}
}

// Add commits a measurement to a series, assigning the next ordinal
// label when none is set.
func (s *Store) Add(seriesID string, m *Measurement) {
	if m.Label == "" {
		s.ordinals[seriesID]++
		m.Label = fmt.Sprintf("M%d", s.ordinals[seriesID])
	}
	s.bySeries[seriesID] = append(s.bySeries[seriesID], m)
}

// ForSeries returns every measurement of a series, in commit order.
func (s *Store) ForSeries(seriesID string) []*Measurement {
	return s.bySeries[seriesID]
}

// ForFrame returns the measurements of one frame within a series.
func (s *Store) ForFrame(seriesID string, frameIndex int) []*Measurement {
	var out []*Measurement
	for _, m := range s.bySeries[seriesID] {
		if m.FrameIndex == frameIndex {
			out = append(out, m)
		}
	}
	return out
}

// Remove deletes a measurement by id. Returns false if absent.
func (s *Store) Remove(seriesID, id string) bool {
	list := s.bySeries[seriesID]
	for i, m := range list {
		if m.ID == id {
			s.bySeries[seriesID] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Restore replaces a series' measurements (session load) and advances
// the ordinal counter past any restored "M<n>" labels.
func (s *Store) Restore(seriesID string, list []*Measurement) {
	s.bySeries[seriesID] = list
	for _, m := range list {
		var n int
		if _, err := fmt.Sscanf(m.Label, "M%d", &n); err == nil && n > s.ordinals[seriesID] {
			s.ordinals[seriesID] = n
		}
	}
}
