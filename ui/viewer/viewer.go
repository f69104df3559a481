// Package viewer provides the interactive viewport widget: frame
// display with pan, zoom, window/level, segmentation painting, and
// distance measurement.
package viewer

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"
	"log"
	"math"
	"sync"

	"dicom-viewer/internal/app"
	"dicom-viewer/internal/render"
	"dicom-viewer/internal/viewport"
	"dicom-viewer/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// zoomDragBase converts vertical drag pixels into a multiplicative zoom
// factor, keeping zoom-in and zoom-out symmetric.
const zoomDragBase = 1.01

// scrollStepPixels is the drag distance that advances one frame with the
// scroll tool.
const scrollStepPixels = 8

// Viewer is the interactive viewport widget.
type Viewer struct {
	widget.BaseWidget

	state *app.State

	raster   *fynecanvas.Raster
	content  *dragArea
	errLabel *widget.Label
	stack    *fyne.Container

	mu         sync.Mutex
	frame      *image.RGBA // decoded current frame, nil when unavailable
	frameErr   error
	lastOutput *image.RGBA
	canvasW    int
	canvasH    int

	dragging    bool
	lastDrag    geometry.Point2D // screen coords of previous drag event
	scrollAccum float64
}

// New creates the viewer and subscribes it to state changes.
func New(state *app.State) *Viewer {
	v := &Viewer{state: state}

	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.content = newDragArea(v, v.raster)

	v.errLabel = widget.NewLabel("")
	v.errLabel.Alignment = fyne.TextAlignCenter
	v.errLabel.Hide()
	v.stack = container.NewStack(v.content, container.NewCenter(v.errLabel))

	v.ExtendBaseWidget(v)

	state.On(app.EventSeriesChanged, func(interface{}) {
		v.mu.Lock()
		v.frame = nil
		v.frameErr = nil
		v.mu.Unlock()
		v.loadFrame()
	})
	state.On(app.EventFrameChanged, func(interface{}) {
		v.loadFrame()
	})
	state.On(app.EventMaskChanged, func(interface{}) {
		v.present()
	})
	state.On(app.EventMeasurementsChanged, func(interface{}) {
		v.present()
	})

	return v
}

// Container returns the canvas object for embedding in layouts.
func (v *Viewer) Container() fyne.CanvasObject {
	return v.stack
}

// CreateRenderer implements fyne.Widget.
func (v *Viewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.stack)
}

// present redraws the composite immediately. Paint strokes call it right
// after mutating the mask so feedback never waits for a scheduled
// refresh.
func (v *Viewer) present() {
	v.raster.Refresh()
}

// draw is the raster drawing function.
func (v *Viewer) draw(w, h int) image.Image {
	v.mu.Lock()
	v.canvasW = w
	v.canvasH = h
	frame := v.frame
	v.mu.Unlock()

	view := v.state.View()

	params := render.Params{CanvasW: w, CanvasH: h}
	if view != nil && frame != nil {
		view.View.FitOnce(float64(w), float64(h), float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy()))

		params.Frame = frame
		params.View = view.View
		params.Segmentation = view.Masks.Visual(view.FrameIndex, v.state.Segments.ColorTable())
		params.SegmentationOpacity = v.state.SegmentationOpacity()
		params.SegmentationVisible = v.state.SegmentationVisible()
		params.Measurements = v.state.Measurements.ForFrame(view.Series.ID, view.FrameIndex)
		params.Draft = v.state.Tracker.Draft()
	}

	out := render.Compose(params)

	v.mu.Lock()
	v.lastOutput = out
	v.mu.Unlock()
	return out
}

// loadFrame resolves the active frame asynchronously. A stale result --
// one whose captured generation no longer matches -- is discarded on
// arrival, so the viewport never shows a frame for an old selection.
func (v *Viewer) loadFrame() {
	view := v.state.View()
	if view == nil {
		return
	}
	index := view.FrameIndex

	locator, err := view.Series.FrameLocator(index)
	if err != nil {
		// Bounds errors are rejected before any fetch attempt.
		v.setError(err)
		v.state.Emit(app.EventFrameFailed, err)
		return
	}

	gen := v.state.Generation()
	go func() {
		res, err := v.state.Resolver.Resolve(context.Background(), locator)
		if !v.state.IsCurrent(gen) {
			return
		}
		if err != nil {
			log.Printf("frame %d unavailable: %v", index, err)
			v.setError(err)
			v.state.Emit(app.EventFrameFailed, err)
			return
		}

		v.mu.Lock()
		v.frame = toRGBA(res.Image)
		v.frameErr = nil
		v.mu.Unlock()

		v.errLabel.Hide()
		v.present()
		v.prefetchNeighbours(view, index)
	}()
}

// setError puts the viewport into an explicit error state for the
// current frame instead of showing stale pixels. No automatic retry.
func (v *Viewer) setError(err error) {
	v.mu.Lock()
	v.frame = nil
	v.frameErr = err
	v.mu.Unlock()

	v.errLabel.SetText("Frame unavailable")
	v.errLabel.Show()
	v.present()
}

// prefetchNeighbours warms the resolver cache for the adjacent frames.
// Results land in the shared cache; display still goes through the
// generation check, so prefetches can never flash a wrong frame.
func (v *Viewer) prefetchNeighbours(view *app.SeriesView, index int) {
	for _, n := range []int{index - 1, index + 1} {
		locator, err := view.Series.FrameLocator(n)
		if err != nil || v.state.Resolver.Cached(locator) {
			continue
		}
		go func(loc string) {
			if _, err := v.state.Resolver.Resolve(context.Background(), loc); err != nil {
				log.Printf("prefetch failed: %v", err)
			}
		}(locator)
	}
}

// StepFrame moves the active frame by delta, clamped to the series.
func (v *Viewer) StepFrame(delta int) {
	view := v.state.View()
	if view == nil {
		return
	}
	next := view.FrameIndex + delta
	if next < 0 {
		next = 0
	}
	if max := view.Series.FrameCount() - 1; next > max {
		next = max
	}
	if next != view.FrameIndex {
		v.state.SetFrameIndex(next)
	}
}

// ZoomBy applies a multiplicative zoom step around the viewport center.
func (v *Viewer) ZoomBy(factor float64) {
	view := v.state.View()
	if view == nil {
		return
	}
	view.View.ZoomBy(factor)
	v.present()
}

// Recenter re-runs fit-to-view at the user's request. Distinct from the
// automatic once-per-series fit.
func (v *Viewer) Recenter() {
	view := v.state.View()
	v.mu.Lock()
	frame := v.frame
	w, h := v.canvasW, v.canvasH
	v.mu.Unlock()
	if view == nil || frame == nil || w == 0 || h == 0 {
		return
	}
	view.View.Fit(float64(w), float64(h), float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy()))
	v.present()
}

// AutoWindow estimates window/level from the current frame's intensity
// distribution.
func (v *Viewer) AutoWindow() {
	view := v.state.View()
	v.mu.Lock()
	frame := v.frame
	v.mu.Unlock()
	if view == nil || frame == nil {
		return
	}
	width, center := viewport.EstimateWindow(frame)
	view.View.SetWindow(width, center)
	v.present()
}

// ResetWindow restores the configured window/level defaults.
func (v *Viewer) ResetWindow() {
	view := v.state.View()
	if view == nil {
		return
	}
	view.View.ResetWindow()
	v.present()
}

// CapturePNG returns a PNG snapshot of exactly what was last composited,
// or nil when nothing has been drawn yet.
func (v *Viewer) CapturePNG() ([]byte, error) {
	v.mu.Lock()
	out := v.lastOutput
	v.mu.Unlock()
	if out == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// screenToImage maps a widget position to image space for the current
// frame, returning ok=false when no frame is displayed.
func (v *Viewer) screenToImage(pos fyne.Position) (geometry.Point2D, bool) {
	view := v.state.View()
	v.mu.Lock()
	frame := v.frame
	w, h := v.canvasW, v.canvasH
	v.mu.Unlock()
	if view == nil || frame == nil || w == 0 || h == 0 {
		return geometry.Point2D{}, false
	}
	p := view.View.ScreenToImage(
		geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)},
		float64(w), float64(h),
		float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy()),
	)
	return p, true
}

// toRGBA converts a decoded image to RGBA without touching pixel values.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// zoomFactor converts a drag delta to a multiplicative zoom factor.
func zoomFactor(dy float64) float64 {
	return math.Pow(zoomDragBase, -dy)
}
