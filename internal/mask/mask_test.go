package mask

import (
	"testing"

	"dicom-viewer/pkg/geometry"
)

func TestPaintStrokeIdempotent(t *testing.T) {
	a := geometry.Point2D{X: 10, Y: 10}
	b := geometry.Point2D{X: 40, Y: 25}

	m1 := New(64, 64)
	m1.PaintStroke(a, b, 5, 3)

	m2 := New(64, 64)
	m2.PaintStroke(a, b, 5, 3)
	m2.PaintStroke(a, b, 5, 3)

	for i := range m1.ID {
		if m1.ID[i] != m2.ID[i] || m1.Alpha[i] != m2.Alpha[i] {
			t.Fatalf("repainting the same stroke changed pixel %d: id %d/%d alpha %d/%d",
				i, m1.ID[i], m2.ID[i], m1.Alpha[i], m2.Alpha[i])
		}
	}
}

func TestPaintStrokeOverwritesOtherID(t *testing.T) {
	m := New(32, 32)
	p := geometry.Point2D{X: 16, Y: 16}

	m.PaintStroke(p, p, 4, 1)
	m.PaintStroke(p, p, 4, 2)

	id, alpha := m.At(16, 16)
	if id != 2 {
		t.Errorf("center id = %d, want 2 (opaque composite)", id)
	}
	if alpha != 255 {
		t.Errorf("center alpha = %d, want 255", alpha)
	}
}

func TestPaintStrokeRoundCaps(t *testing.T) {
	m := New(64, 64)
	m.PaintStroke(geometry.Point2D{X: 20, Y: 32}, geometry.Point2D{X: 44, Y: 32}, 5, 1)

	// Inside the start cap, beyond the segment endpoint.
	if id, alpha := m.At(17, 32); id != 1 || alpha < StrongAlpha {
		t.Errorf("start cap pixel: id=%d alpha=%d, want painted", id, alpha)
	}
	// Well outside the capsule.
	if _, alpha := m.At(20, 45); alpha != 0 {
		t.Errorf("pixel outside stroke painted with alpha %d", alpha)
	}
}

func TestPaintStrokeEdgeFeather(t *testing.T) {
	m := New(64, 64)
	c := geometry.Point2D{X: 32, Y: 32}
	m.PaintStroke(c, c, 6, 1)

	// Exactly on the radius the coverage is partial, below StrongAlpha.
	_, edge := m.At(38, 32)
	if edge == 0 || edge >= StrongAlpha {
		t.Errorf("edge alpha = %d, want partial coverage below %d", edge, StrongAlpha)
	}
}

func TestEraseStroke(t *testing.T) {
	m := New(64, 64)
	a := geometry.Point2D{X: 10, Y: 32}
	b := geometry.Point2D{X: 54, Y: 32}
	m.PaintStroke(a, b, 8, 5)

	mid := geometry.Point2D{X: 32, Y: 32}
	m.EraseStroke(mid, mid, 4)

	if id, alpha := m.At(32, 32); id != 0 || alpha != 0 {
		t.Errorf("erased center: id=%d alpha=%d, want cleared", id, alpha)
	}
	if id, alpha := m.At(12, 32); id != 5 || alpha < StrongAlpha {
		t.Errorf("pixel outside eraser: id=%d alpha=%d, want untouched", id, alpha)
	}
}

func TestAtOutOfBounds(t *testing.T) {
	m := New(8, 8)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {8, 0}, {0, 8}} {
		if id, alpha := m.At(p[0], p[1]); id != 0 || alpha != 0 {
			t.Errorf("At(%d,%d) = %d,%d, want zeros", p[0], p[1], id, alpha)
		}
	}
}

func TestLabelCount(t *testing.T) {
	m := New(64, 64)
	if m.LabelCount() != 0 {
		t.Fatalf("empty mask label count = %d", m.LabelCount())
	}

	m.PaintStroke(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 10, Y: 10}, 3, 1)
	m.PaintStroke(geometry.Point2D{X: 40, Y: 40}, geometry.Point2D{X: 40, Y: 40}, 3, 7)
	if got := m.LabelCount(); got != 2 {
		t.Errorf("label count = %d, want 2", got)
	}

	m.EraseStroke(geometry.Point2D{X: 40, Y: 40}, geometry.Point2D{X: 40, Y: 40}, 6)
	if got := m.LabelCount(); got != 1 {
		t.Errorf("label count after erase = %d, want 1", got)
	}
}

func TestStrokeCoverageZeroRadius(t *testing.T) {
	visited := false
	strokeCoverage(32, 32, geometry.Point2D{X: 5, Y: 5}, geometry.Point2D{X: 10, Y: 10}, 0,
		func(x, y int, coverage uint8) { visited = true })
	if visited {
		t.Error("zero radius stroke should visit nothing")
	}
}
