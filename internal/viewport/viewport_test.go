package viewport

import (
	"math"
	"testing"

	"dicom-viewer/pkg/geometry"
)

const coordEps = 1e-9

// TestScreenImageRoundtrip verifies that ScreenToImage and ImageToScreen
// are exact inverses across pan and zoom states.
func TestScreenImageRoundtrip(t *testing.T) {
	states := []*State{
		NewState(400, 40),
		{Scale: 2.5, Pan: geometry.Point2D{X: -120, Y: 33}},
		{Scale: 0.25, Pan: geometry.Point2D{X: 999, Y: -999}},
	}
	points := []geometry.Point2D{
		{X: 0, Y: 0},
		{X: 400, Y: 300},
		{X: -17.5, Y: 1023.25},
	}

	for _, s := range states {
		for _, p := range points {
			img := s.ScreenToImage(p, 800, 600, 512, 512)
			back := s.ImageToScreen(img, 800, 600, 512, 512)
			if math.Abs(back.X-p.X) > coordEps || math.Abs(back.Y-p.Y) > coordEps {
				t.Errorf("scale=%v pan=%v: roundtrip of %v gave %v", s.Scale, s.Pan, p, back)
			}
		}
	}
}

// TestScreenToImageCenter verifies that the canvas center maps to the
// image center when pan is zero, regardless of scale.
func TestScreenToImageCenter(t *testing.T) {
	s := NewState(400, 40)
	s.Scale = 3

	p := s.ScreenToImage(geometry.Point2D{X: 400, Y: 300}, 800, 600, 512, 512)
	if math.Abs(p.X-256) > coordEps || math.Abs(p.Y-256) > coordEps {
		t.Errorf("canvas center mapped to %v, want (256, 256)", p)
	}
}

// TestTransformMatchesImageToScreen verifies the affine form and the
// direct mapping agree.
func TestTransformMatchesImageToScreen(t *testing.T) {
	s := NewState(400, 40)
	s.Scale = 1.75
	s.Pan = geometry.Point2D{X: -40, Y: 12}

	tr := s.Transform(800, 600, 512, 512)
	for _, p := range []geometry.Point2D{{X: 0, Y: 0}, {X: 256, Y: 256}, {X: 512, Y: 100}} {
		viaTransform := tr.Apply(p)
		direct := s.ImageToScreen(p, 800, 600, 512, 512)
		if math.Abs(viaTransform.X-direct.X) > coordEps || math.Abs(viaTransform.Y-direct.Y) > coordEps {
			t.Errorf("transform of %v = %v, direct = %v", p, viaTransform, direct)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name             string
		canvasW, canvasH float64
		imageW, imageH   float64
		wantScale        float64
	}{
		{"landscape canvas square image", 800, 600, 512, 512, 600.0 / 512 * 0.95},
		{"canvas smaller than image", 400, 400, 512, 512, 400.0 / 512 * 0.95},
		{"tiny canvas clamps to minimum", 10, 10, 4096, 4096, MinScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(400, 40)
			s.Pan = geometry.Point2D{X: 50, Y: 50}
			s.Fit(tt.canvasW, tt.canvasH, tt.imageW, tt.imageH)

			if math.Abs(s.Scale-tt.wantScale) > coordEps {
				t.Errorf("Fit scale = %v, want %v", s.Scale, tt.wantScale)
			}
			if s.Pan.X != 0 || s.Pan.Y != 0 {
				t.Errorf("Fit should recenter pan, got %v", s.Pan)
			}
		})
	}
}

// TestFitOnce verifies the fit runs exactly once per viewport; later
// calls keep user adjustments.
func TestFitOnce(t *testing.T) {
	s := NewState(400, 40)

	if !s.FitOnce(800, 600, 512, 512) {
		t.Fatal("first FitOnce should apply")
	}
	s.ZoomBy(2)
	s.PanBy(10, 20)
	userScale := s.Scale

	if s.FitOnce(1000, 1000, 512, 512) {
		t.Error("second FitOnce should be a no-op")
	}
	if s.Scale != userScale || s.Pan.X != 10 || s.Pan.Y != 20 {
		t.Errorf("second FitOnce disturbed state: scale=%v pan=%v", s.Scale, s.Pan)
	}
}

// TestFitInvalidDimensions verifies degenerate sizes neither fit nor
// consume the one-shot.
func TestFitInvalidDimensions(t *testing.T) {
	s := NewState(400, 40)
	if s.FitOnce(800, 600, 0, 0) {
		t.Error("FitOnce with zero image size should not apply")
	}
	if !s.FitOnce(800, 600, 512, 512) {
		t.Error("FitOnce should still be pending after an invalid attempt")
	}
}

func TestZoomBy(t *testing.T) {
	s := NewState(400, 40)

	s.ZoomBy(2)
	if s.Scale != 2 {
		t.Errorf("ZoomBy(2) from 1 = %v, want 2", s.Scale)
	}

	s.ZoomBy(0.5)
	s.ZoomBy(0.5)
	if s.Scale != 0.5 {
		t.Errorf("symmetric zoom should return through 1, got %v", s.Scale)
	}

	for i := 0; i < 100; i++ {
		s.ZoomBy(0.5)
	}
	if s.Scale != MinScale {
		t.Errorf("zoom should clamp at %v, got %v", MinScale, s.Scale)
	}

	s.ZoomBy(0)
	s.ZoomBy(-3)
	if s.Scale != MinScale {
		t.Errorf("non-positive factors should be ignored, got %v", s.Scale)
	}
}

func TestAdjustWindowFloor(t *testing.T) {
	s := NewState(400, 40)
	s.AdjustWindow(-1000, 0)
	if s.WindowWidth != 1 {
		t.Errorf("window width floor = %v, want 1", s.WindowWidth)
	}
}

func TestContrastPercent(t *testing.T) {
	tests := []struct {
		name         string
		defaultWidth float64
		currentWidth float64
		want         float64
	}{
		{"unchanged", 400, 400, 100},
		{"narrower window raises contrast", 400, 200, 200},
		{"wider window lowers contrast", 400, 800, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(tt.defaultWidth, 40)
			s.WindowWidth = tt.currentWidth
			if got := s.ContrastPercent(); math.Abs(got-tt.want) > coordEps {
				t.Errorf("ContrastPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBrightnessPercent(t *testing.T) {
	tests := []struct {
		name          string
		defaultCenter float64
		currentCenter float64
		want          float64
	}{
		{"unchanged", 40, 40, 100},
		{"lower center brightens", 40, -60, 120},
		{"higher center darkens", 40, 140, 80},
		{"clamped at zero", 40, 100000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(400, tt.defaultCenter)
			s.WindowCenter = tt.currentCenter
			if got := s.BrightnessPercent(); math.Abs(got-tt.want) > coordEps {
				t.Errorf("BrightnessPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetWindow(t *testing.T) {
	s := NewState(400, 40)
	s.AdjustWindow(250, -90)
	s.ResetWindow()
	if s.WindowWidth != 400 || s.WindowCenter != 40 {
		t.Errorf("ResetWindow gave width=%v center=%v, want 400/40", s.WindowWidth, s.WindowCenter)
	}
}
