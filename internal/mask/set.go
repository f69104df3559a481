package mask

import (
	"image"
	"image/color"
	"sort"

	"dicom-viewer/pkg/geometry"
)

// SliceSummary indexes one frame that carries segmentation, for
// navigation display only.
type SliceSummary struct {
	FrameIndex int
	LabelCount int
}

// Set owns the masks and visual caches for one mounted series view.
// It is constructed fresh per series and discarded on series switch, so
// cleanup is an ownership drop rather than map clearing. Nothing outside
// the owning view writes into it.
type Set struct {
	masks   map[int]*Mask
	visuals map[int]*image.RGBA
	labels  map[int]int // frame index -> label count, non-empty frames only
}

// NewSet creates an empty mask set.
func NewSet() *Set {
	return &Set{
		masks:   make(map[int]*Mask),
		visuals: make(map[int]*image.RGBA),
		labels:  make(map[int]int),
	}
}

// Get returns the mask for a frame, or nil if the frame has never been
// painted.
func (s *Set) Get(frame int) *Mask {
	return s.masks[frame]
}

// maskFor returns the frame's mask, creating it on first visit.
func (s *Set) maskFor(frame, w, h int) *Mask {
	m := s.masks[frame]
	if m == nil {
		m = New(w, h)
		s.masks[frame] = m
	}
	return m
}

// Paint draws a brush stroke into the frame's mask and, when a visual
// cache entry exists, the identical stroke shape mapped through the
// segment color, so the screen can be presented without a rebuild.
func (s *Set) Paint(frame, w, h int, a, b geometry.Point2D, radius float64, id uint16, col color.RGBA) {
	if id == 0 {
		return
	}
	m := s.maskFor(frame, w, h)
	m.PaintStroke(a, b, radius, id)

	if vis := s.visuals[frame]; vis != nil {
		strokeCoverage(w, h, a, b, radius, func(x, y int, coverage uint8) {
			if coverage >= StrongAlpha {
				vis.SetRGBA(x, y, col)
			}
		})
	}
	s.updateLabels(frame)
}

// Erase punches a hole along the stroke in both the mask and the visual
// cache. Erasing never requires a selected segment.
func (s *Set) Erase(frame int, a, b geometry.Point2D, radius float64) {
	m := s.masks[frame]
	if m == nil {
		return
	}
	m.EraseStroke(a, b, radius)

	if vis := s.visuals[frame]; vis != nil {
		strokeCoverage(m.W, m.H, a, b, radius, func(x, y int, coverage uint8) {
			if coverage >= StrongAlpha {
				vis.SetRGBA(x, y, color.RGBA{})
			}
		})
	}
	s.updateLabels(frame)
}

// RemoveID clears the alpha of every pixel owned by id across every
// cached mask, then discards the whole visual cache so the next draw
// rebuilds exactly from the corrected masks.
func (s *Set) RemoveID(id uint16) {
	for frame, m := range s.masks {
		touched := false
		for i := range m.ID {
			if m.ID[i] == id && m.Alpha[i] != 0 {
				m.Alpha[i] = 0
				touched = true
			}
		}
		if touched {
			s.updateLabels(frame)
		}
	}
	s.visuals = make(map[int]*image.RGBA)
}

// InvalidateVisuals drops every visual cache entry. Called when segment
// colors or visibility change; masks are untouched.
func (s *Set) InvalidateVisuals() {
	s.visuals = make(map[int]*image.RGBA)
}

// Visual returns the display raster for a frame, rebuilding it from the
// mask when no cache entry exists. Pixels below the strong-opacity
// threshold, and ids absent from the table (hidden or deleted segments),
// are not drawn. Returns nil for frames without segmentation.
func (s *Set) Visual(frame int, table map[uint16]color.RGBA) *image.RGBA {
	if vis := s.visuals[frame]; vis != nil {
		return vis
	}
	m := s.masks[frame]
	if m == nil {
		return nil
	}

	vis := image.NewRGBA(image.Rect(0, 0, m.W, m.H))
	for i, a := range m.Alpha {
		if a < StrongAlpha {
			continue
		}
		col, ok := table[m.ID[i]]
		if !ok {
			continue
		}
		o := i * 4
		vis.Pix[o] = col.R
		vis.Pix[o+1] = col.G
		vis.Pix[o+2] = col.B
		vis.Pix[o+3] = 255
	}
	s.visuals[frame] = vis
	return vis
}

// Summaries returns the segmented-slice index in ascending frame order.
func (s *Set) Summaries() []SliceSummary {
	out := make([]SliceSummary, 0, len(s.labels))
	for frame, count := range s.labels {
		out = append(out, SliceSummary{FrameIndex: frame, LabelCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FrameIndex < out[j].FrameIndex })
	return out
}

// updateLabels recomputes one frame's label count and inserts, updates,
// or removes its summary entry.
func (s *Set) updateLabels(frame int) {
	m := s.masks[frame]
	if m == nil {
		delete(s.labels, frame)
		return
	}
	count := m.LabelCount()
	if count == 0 {
		delete(s.labels, frame)
		return
	}
	s.labels[frame] = count
}
