package measure

import (
	"testing"

	"dicom-viewer/pkg/geometry"
)

func TestTrackerStates(t *testing.T) {
	tr := NewTracker()
	if tr.Dragging() {
		t.Fatal("new tracker should be idle")
	}

	tr.Begin(geometry.Point2D{X: 10, Y: 10}, 4)
	if !tr.Dragging() {
		t.Fatal("tracker should be dragging after Begin")
	}
	tr.Update(geometry.Point2D{X: 40, Y: 50})

	d := tr.Draft()
	if d == nil {
		t.Fatal("no draft after Begin/Update")
	}
	if d.DistanceInPixels != 50 {
		t.Fatalf("draft distance = %v, want 50", d.DistanceInPixels)
	}
	if d.ID != "" || !d.CreatedAt.IsZero() {
		t.Error("drafts must not carry identity before commit")
	}
}

func TestTrackerFinish(t *testing.T) {
	tests := []struct {
		name       string
		end        geometry.Point2D
		wantCommit bool
	}{
		{"long drag commits", geometry.Point2D{X: 30, Y: 10}, true},
		{"exactly at threshold discards", geometry.Point2D{X: 15, Y: 10}, false},
		{"short drag discards", geometry.Point2D{X: 12, Y: 10}, false},
		{"zero drag discards", geometry.Point2D{X: 10, Y: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.Begin(geometry.Point2D{X: 10, Y: 10}, 2)
			tr.Update(tt.end)

			m, ok := tr.Finish()
			if ok != tt.wantCommit {
				t.Fatalf("commit = %v, want %v", ok, tt.wantCommit)
			}
			if tr.Dragging() {
				t.Error("tracker should be idle after Finish")
			}
			if !tt.wantCommit {
				return
			}
			if m.ID == "" {
				t.Error("committed measurement has no id")
			}
			if m.CreatedAt.IsZero() {
				t.Error("committed measurement has no timestamp")
			}
			if m.FrameIndex != 2 {
				t.Errorf("frame index = %d, want 2", m.FrameIndex)
			}
			wantDist := tt.end.Distance(geometry.Point2D{X: 10, Y: 10})
			if m.DistanceInPixels != wantDist {
				t.Errorf("distance = %v, want %v", m.DistanceInPixels, wantDist)
			}
		})
	}
}

func TestTrackerCancel(t *testing.T) {
	tr := NewTracker()
	tr.Begin(geometry.Point2D{X: 0, Y: 0}, 0)
	tr.Update(geometry.Point2D{X: 100, Y: 100})
	tr.Cancel()

	if tr.Dragging() || tr.Draft() != nil {
		t.Error("Cancel should discard the draft")
	}
	if m, ok := tr.Finish(); ok || m != nil {
		t.Error("Finish after Cancel should commit nothing")
	}
}

func TestTrackerUpdateIdle(t *testing.T) {
	tr := NewTracker()
	tr.Update(geometry.Point2D{X: 5, Y: 5})
	if tr.Draft() != nil {
		t.Error("Update while idle should be a no-op")
	}
}

func TestStoreScoping(t *testing.T) {
	s := NewStore()

	commit := func(seriesID string, frame int) *Measurement {
		tr := NewTracker()
		tr.Begin(geometry.Point2D{X: 0, Y: 0}, frame)
		tr.Update(geometry.Point2D{X: 50, Y: 0})
		m, _ := tr.Finish()
		s.Add(seriesID, m)
		return m
	}

	a1 := commit("series-a", 0)
	a2 := commit("series-a", 3)
	commit("series-b", 0)

	if got := len(s.ForSeries("series-a")); got != 2 {
		t.Errorf("series-a measurements = %d, want 2", got)
	}
	if got := len(s.ForSeries("series-b")); got != 1 {
		t.Errorf("series-b measurements = %d, want 1", got)
	}
	if got := len(s.ForSeries("series-c")); got != 0 {
		t.Errorf("unknown series measurements = %d, want 0", got)
	}

	if a1.Label != "M1" || a2.Label != "M2" {
		t.Errorf("ordinal labels = %q, %q, want M1, M2", a1.Label, a2.Label)
	}

	frame3 := s.ForFrame("series-a", 3)
	if len(frame3) != 1 || frame3[0] != a2 {
		t.Errorf("ForFrame(3) = %v, want only the frame-3 measurement", frame3)
	}
}

// TestOrdinalLabelsNeverReused verifies that removing a measurement
// does not free its label for a later commit.
func TestOrdinalLabelsNeverReused(t *testing.T) {
	s := NewStore()
	var second *Measurement
	for i := 0; i < 3; i++ {
		tr := NewTracker()
		tr.Begin(geometry.Point2D{X: 0, Y: 0}, 0)
		tr.Update(geometry.Point2D{X: 30, Y: 0})
		m, _ := tr.Finish()
		s.Add("sr", m)
		if i == 1 {
			second = m
		}
	}

	if !s.Remove("sr", second.ID) {
		t.Fatal("Remove of M2 should succeed")
	}

	next := &Measurement{ID: "next", Start: geometry.Point2D{}, End: geometry.Point2D{X: 10, Y: 0}, DistanceInPixels: 10}
	s.Add("sr", next)
	if next.Label != "M4" {
		t.Errorf("label after removing M2 = %q, want M4", next.Label)
	}
}

// TestRestoreAdvancesOrdinals verifies a session load seeds the label
// counter past the restored labels.
func TestRestoreAdvancesOrdinals(t *testing.T) {
	s := NewStore()
	s.Restore("sr", []*Measurement{
		{ID: "a", Label: "M1"},
		{ID: "b", Label: "M7"},
		{ID: "c", Label: "lesion width"},
	})

	m := &Measurement{ID: "d", DistanceInPixels: 12}
	s.Add("sr", m)
	if m.Label != "M8" {
		t.Errorf("label after restore = %q, want M8", m.Label)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	tr := NewTracker()
	tr.Begin(geometry.Point2D{X: 0, Y: 0}, 0)
	tr.Update(geometry.Point2D{X: 20, Y: 0})
	m, _ := tr.Finish()
	s.Add("sr", m)

	if !s.Remove("sr", m.ID) {
		t.Error("Remove of an existing measurement should succeed")
	}
	if s.Remove("sr", m.ID) {
		t.Error("second Remove should report absence")
	}
	if len(s.ForSeries("sr")) != 0 {
		t.Error("measurement not removed")
	}
}
