// Package segment maintains the table of pixel labels used by the
// segmentation layer. Segments carry display state (color, visibility)
// only; pixel ownership lives in the per-frame masks.
package segment

import (
	"fmt"
	"image/color"

	"dicom-viewer/pkg/colorutil"
)

// Segment is one label in the table.
type Segment struct {
	ID      uint16      `json:"id"`
	Label   string      `json:"label"`
	Color   color.RGBA  `json:"-"`
	RGB     [3]uint8    `json:"color"` // serialized form of Color
	Visible bool        `json:"visible"`
}

// Store holds segments in insertion order. IDs are unique and are never
// reused within a session, even after a segment is removed.
type Store struct {
	segments []*Segment
	highest  uint16
}

// NewStore creates an empty segment store.
func NewStore() *Store {
	return &Store{}
}

// Add creates a new visible segment with a fresh id and a palette color.
// The fresh id is max(existing ids)+1, floored so removed ids never come
// back.
func (s *Store) Add(label string) *Segment {
	id := s.highest + 1
	for _, seg := range s.segments {
		if seg.ID >= id {
			id = seg.ID + 1
		}
	}
	s.highest = id

	if label == "" {
		label = fmt.Sprintf("Segment %d", id)
	}
	c := colorutil.SegmentColor(int(id) - 1)
	seg := &Segment{
		ID:      id,
		Label:   label,
		Color:   c,
		RGB:     [3]uint8{c.R, c.G, c.B},
		Visible: true,
	}
	s.segments = append(s.segments, seg)
	return seg
}

// Get returns the segment with the given id, or nil.
func (s *Store) Get(id uint16) *Segment {
	for _, seg := range s.segments {
		if seg.ID == id {
			return seg
		}
	}
	return nil
}

// Remove deletes a segment from the table. Mask pixels owned by the id
// are the caller's responsibility (see mask.RemoveID).
func (s *Store) Remove(id uint16) bool {
	for i, seg := range s.segments {
		if seg.ID == id {
			s.segments = append(s.segments[:i], s.segments[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the segments in insertion order.
func (s *Store) List() []*Segment {
	return s.segments
}

// Len returns the number of segments.
func (s *Store) Len() int {
	return len(s.segments)
}

// SetColor changes a segment's display color.
func (s *Store) SetColor(id uint16, c color.RGBA) bool {
	seg := s.Get(id)
	if seg == nil {
		return false
	}
	seg.Color = c
	seg.RGB = [3]uint8{c.R, c.G, c.B}
	return true
}

// SetVisible toggles a segment's visibility.
func (s *Store) SetVisible(id uint16, visible bool) bool {
	seg := s.Get(id)
	if seg == nil {
		return false
	}
	seg.Visible = visible
	return true
}

// ColorTable returns id -> color for currently visible segments only.
// Hidden and deleted ids are simply absent, so visual rebuilds skip them.
func (s *Store) ColorTable() map[uint16]color.RGBA {
	table := make(map[uint16]color.RGBA, len(s.segments))
	for _, seg := range s.segments {
		if seg.Visible {
			table[seg.ID] = seg.Color
		}
	}
	return table
}

// Restore rebuilds the store from serialized segments, preserving order
// and keeping the id high-water mark past every restored id.
func (s *Store) Restore(segments []*Segment) {
	s.segments = nil
	s.highest = 0
	for _, seg := range segments {
		if seg == nil {
			continue
		}
		seg.Color = color.RGBA{R: seg.RGB[0], G: seg.RGB[1], B: seg.RGB[2], A: 255}
		s.segments = append(s.segments, seg)
		if seg.ID > s.highest {
			s.highest = seg.ID
		}
	}
}
