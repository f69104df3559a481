// Package viewport maps between screen and image coordinates and holds
// the per-series display state: pan, zoom, and window/level.
package viewport

import (
	"math"

	"dicom-viewer/pkg/geometry"
)

// MinScale is the smallest zoom allowed; it prevents degenerate or
// inverted transforms.
const MinScale = 0.05

// fitMargin leaves a small border when fitting a frame to the view.
const fitMargin = 0.95

// State is the viewport display state. It is owned exclusively by the
// viewport and reset to defaults whenever the active series changes.
// Window width/center drive a display-only remap, never pixel mutation.
type State struct {
	Scale float64
	Pan   geometry.Point2D

	WindowWidth  float64
	WindowCenter float64

	defaultWidth  float64
	defaultCenter float64

	fitApplied bool
}

// NewState creates a viewport at 1:1 scale with the given window/level
// defaults.
func NewState(defaultWidth, defaultCenter float64) *State {
	return &State{
		Scale:         1,
		WindowWidth:   defaultWidth,
		WindowCenter:  defaultCenter,
		defaultWidth:  defaultWidth,
		defaultCenter: defaultCenter,
	}
}

// Transform returns the image->screen affine transform for the given
// canvas size. Images are drawn centered at the origin, scaled, then
// translated to canvas center plus pan.
func (s *State) Transform(canvasW, canvasH, imageW, imageH float64) geometry.AffineTransform {
	return geometry.Translation(canvasW/2+s.Pan.X, canvasH/2+s.Pan.Y).
		Compose(geometry.Scaling(s.Scale)).
		Compose(geometry.Translation(-imageW/2, -imageH/2))
}

// ScreenToImage maps a screen pixel position to image space.
func (s *State) ScreenToImage(p geometry.Point2D, canvasW, canvasH, imageW, imageH float64) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X-canvasW/2-s.Pan.X)/s.Scale + imageW/2,
		Y: (p.Y-canvasH/2-s.Pan.Y)/s.Scale + imageH/2,
	}
}

// ImageToScreen is the exact inverse of ScreenToImage.
func (s *State) ImageToScreen(p geometry.Point2D, canvasW, canvasH, imageW, imageH float64) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X-imageW/2)*s.Scale + canvasW/2 + s.Pan.X,
		Y: (p.Y-imageH/2)*s.Scale + canvasH/2 + s.Pan.Y,
	}
}

// Fit sets scale so the image fills the canvas with a small margin and
// recenters the pan.
func (s *State) Fit(canvasW, canvasH, imageW, imageH float64) {
	if imageW <= 0 || imageH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return
	}
	s.Scale = math.Max(MinScale, math.Min(canvasW/imageW, canvasH/imageH)*fitMargin)
	s.Pan = geometry.Point2D{}
	s.fitApplied = true
}

// FitOnce applies Fit exactly once per series view: the first successful
// frame decode fits, later resizes keep the user's chosen scale and pan.
// Returns whether the fit ran.
func (s *State) FitOnce(canvasW, canvasH, imageW, imageH float64) bool {
	if s.fitApplied {
		return false
	}
	s.Fit(canvasW, canvasH, imageW, imageH)
	return s.fitApplied
}

// ZoomBy multiplies the scale, clamped at the minimum bound.
// Multiplicative deltas keep zoom-in and zoom-out symmetric.
func (s *State) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	s.Scale = math.Max(MinScale, s.Scale*factor)
}

// PanBy shifts the pan offset by a screen-space delta.
func (s *State) PanBy(dx, dy float64) {
	s.Pan.X += dx
	s.Pan.Y += dy
}

// AdjustWindow applies a window/level drag delta: horizontal movement
// widens/narrows the window, vertical movement shifts the center.
func (s *State) AdjustWindow(dWidth, dCenter float64) {
	s.WindowWidth = math.Max(1, s.WindowWidth+dWidth)
	s.WindowCenter += dCenter
}

// SetWindow sets window width and center directly (auto window/level).
func (s *State) SetWindow(width, center float64) {
	s.WindowWidth = math.Max(1, width)
	s.WindowCenter = center
}

// ResetWindow restores the default window/level.
func (s *State) ResetWindow() {
	s.WindowWidth = s.defaultWidth
	s.WindowCenter = s.defaultCenter
}

// ContrastPercent returns the display contrast derived from the window
// width, floor-clamped at zero. 100 means unchanged.
func (s *State) ContrastPercent() float64 {
	if s.WindowWidth <= 0 {
		return 0
	}
	return math.Max(0, s.defaultWidth/s.WindowWidth*100)
}

// BrightnessPercent returns the display brightness derived from the
// window center, floor-clamped at zero. 100 means unchanged.
func (s *State) BrightnessPercent() float64 {
	return math.Max(0, 100+(s.defaultCenter-s.WindowCenter)/5)
}
