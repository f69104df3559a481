// Package mask implements the segmentation raster model: a per-frame
// identity plane recording which segment owns each pixel, and a derived
// color plane used for display.
//
// The split is deliberate. Identity lives in a uint16 plane and never
// stores color, so recoloring a segment or toggling its visibility only
// invalidates the derived plane, and removing every pixel of one id is a
// single sweep over raw buffers independent of display state.
package mask

import (
	"math"

	"dicom-viewer/pkg/geometry"
)

// StrongAlpha is the opacity threshold above which a mask pixel counts as
// painted when rebuilding the visual plane. Anti-aliased partial coverage
// at stroke edges falls below it and is ignored.
const StrongAlpha = 128

// Mask is the identity raster for one frame: ID holds the owning segment
// id per pixel (0 = unlabeled), Alpha marks painted vs. not.
type Mask struct {
	W, H  int
	ID    []uint16
	Alpha []uint8
}

// New creates an empty mask with the given pixel dimensions.
func New(w, h int) *Mask {
	return &Mask{
		W:     w,
		H:     h,
		ID:    make([]uint16, w*h),
		Alpha: make([]uint8, w*h),
	}
}

// At returns the id and alpha at (x, y), or zeros outside the mask.
func (m *Mask) At(x, y int) (uint16, uint8) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return 0, 0
	}
	i := y*m.W + x
	return m.ID[i], m.Alpha[i]
}

// LabelCount returns the number of distinct non-zero ids with any
// painted coverage.
func (m *Mask) LabelCount() int {
	seen := make(map[uint16]struct{})
	for i, a := range m.Alpha {
		if a == 0 {
			continue
		}
		if id := m.ID[i]; id != 0 {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// PaintStroke draws a round-capped, round-joined stroke of the given
// radius between two image-space points, encoding id in the identity
// plane. The composite is opaque: repainting the same stroke with the
// same id leaves the mask unchanged.
func (m *Mask) PaintStroke(a, b geometry.Point2D, radius float64, id uint16) {
	strokeCoverage(m.W, m.H, a, b, radius, func(x, y int, coverage uint8) {
		i := y*m.W + x
		if m.ID[i] == id {
			// Same id: keep the stronger coverage so overlapping
			// strokes stay idempotent instead of re-feathering edges.
			if coverage > m.Alpha[i] {
				m.Alpha[i] = coverage
			}
			return
		}
		m.ID[i] = id
		m.Alpha[i] = coverage
	})
}

// EraseStroke punches a hole along the same stroke shape: alpha drops to
// zero regardless of which segment owned the pixels.
func (m *Mask) EraseStroke(a, b geometry.Point2D, radius float64) {
	strokeCoverage(m.W, m.H, a, b, radius, func(x, y int, coverage uint8) {
		i := y*m.W + x
		if coverage >= StrongAlpha {
			m.ID[i] = 0
			m.Alpha[i] = 0
		} else if m.Alpha[i] > 255-coverage {
			m.Alpha[i] = 255 - coverage
		}
	})
}

// strokeCoverage visits every pixel covered by the capsule (round-capped
// segment) from a to b within a w x h raster, passing an anti-aliased
// coverage value. Distance to the segment gives round caps and round
// joins for free.
func strokeCoverage(w, h int, a, b geometry.Point2D, radius float64, visit func(x, y int, coverage uint8)) {
	if radius <= 0 {
		return
	}

	minX := int(math.Floor(math.Min(a.X, b.X) - radius - 1))
	maxX := int(math.Ceil(math.Max(a.X, b.X) + radius + 1))
	minY := int(math.Floor(math.Min(a.Y, b.Y) - radius - 1))
	maxY := int(math.Ceil(math.Max(a.Y, b.Y) + radius + 1))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if maxY >= h {
		maxY = h - 1
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			d := distanceToSegment(float64(x), float64(y), a, b)
			if d > radius+0.5 {
				continue
			}
			var coverage uint8
			if d <= radius-0.5 {
				coverage = 255
			} else {
				// Linear falloff across the final pixel of the edge.
				coverage = uint8(math.Round((radius + 0.5 - d) * 255))
			}
			if coverage == 0 {
				continue
			}
			visit(x, y, coverage)
		}
	}
}

// distanceToSegment returns the distance from (px, py) to the segment ab.
func distanceToSegment(px, py float64, a, b geometry.Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(px-a.X, py-a.Y)
	}
	t := ((px-a.X)*dx + (py-a.Y)*dy) / lengthSq
	t = geometry.Clamp(t, 0, 1)
	return math.Hypot(px-(a.X+t*dx), py-(a.Y+t*dy))
}
