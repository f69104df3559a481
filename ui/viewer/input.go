package viewer

import (
	"dicom-viewer/internal/app"
	"dicom-viewer/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// dragArea routes pointer input from the canvas to the viewer's active
// tool.
type dragArea struct {
	widget.BaseWidget

	viewer  *Viewer
	content fyne.CanvasObject
}

func newDragArea(v *Viewer, content fyne.CanvasObject) *dragArea {
	d := &dragArea{viewer: v, content: content}
	d.ExtendBaseWidget(d)
	return d
}

func (d *dragArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.content)
}

func (d *dragArea) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

func (d *dragArea) Dragged(ev *fyne.DragEvent) {
	d.viewer.handleDrag(ev)
}

func (d *dragArea) DragEnd() {
	d.viewer.handleDragEnd()
}

func (d *dragArea) Scrolled(ev *fyne.ScrollEvent) {
	d.viewer.handleScroll(ev)
}

func (d *dragArea) Tapped(*fyne.PointEvent) {}

// handleDrag dispatches a drag delta to the active tool.
func (v *Viewer) handleDrag(ev *fyne.DragEvent) {
	view := v.state.View()
	if view == nil {
		return
	}

	cur := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	dx := float64(ev.Dragged.DX)
	dy := float64(ev.Dragged.DY)

	v.mu.Lock()
	if !v.dragging {
		v.dragging = true
		v.scrollAccum = 0
		// The previous pointer position is the current one minus the
		// reported delta; fyne does not deliver a separate drag-start.
		v.lastDrag = geometry.Point2D{X: cur.X - dx, Y: cur.Y - dy}
	}
	last := v.lastDrag
	v.lastDrag = cur
	v.mu.Unlock()

	switch v.state.Tool() {
	case app.ToolPan, app.ToolSelect:
		view.View.PanBy(dx, dy)
		v.present()
	case app.ToolZoom:
		view.View.ZoomBy(zoomFactor(dy))
		v.present()
	case app.ToolWindowLevel:
		view.View.AdjustWindow(dx, dy)
		v.present()
	case app.ToolScroll:
		v.dragScroll(dy)
	case app.ToolPaint:
		v.paintStroke(last, cur, false)
	case app.ToolErase:
		v.paintStroke(last, cur, true)
	case app.ToolMeasure:
		v.measureDrag(last, cur)
	}
}

// handleDragEnd commits or discards a measurement draft and resets drag
// tracking.
func (v *Viewer) handleDragEnd() {
	v.mu.Lock()
	v.dragging = false
	v.scrollAccum = 0
	v.mu.Unlock()

	if v.state.Tracker.Dragging() {
		view := v.state.View()
		if m, ok := v.state.Tracker.Finish(); ok && view != nil {
			v.state.Measurements.Add(view.Series.ID, m)
		}
		// Redraw either way; a discarded draft must vanish too.
		v.state.Emit(app.EventMeasurementsChanged, nil)
	}
}

// handleScroll maps the wheel to frame navigation, or to zoom when the
// zoom tool is active.
func (v *Viewer) handleScroll(ev *fyne.ScrollEvent) {
	if v.state.Tool() == app.ToolZoom {
		view := v.state.View()
		if view == nil {
			return
		}
		view.View.ZoomBy(zoomFactor(float64(-ev.Scrolled.DY) * 4))
		v.present()
		return
	}

	if ev.Scrolled.DY < 0 {
		v.StepFrame(1)
	} else if ev.Scrolled.DY > 0 {
		v.StepFrame(-1)
	}
}

// dragScroll accumulates vertical drag distance and steps frames in
// fixed increments.
func (v *Viewer) dragScroll(dy float64) {
	v.mu.Lock()
	v.scrollAccum += dy
	steps := int(v.scrollAccum / scrollStepPixels)
	if steps != 0 {
		v.scrollAccum -= float64(steps) * scrollStepPixels
	}
	v.mu.Unlock()

	if steps != 0 {
		v.StepFrame(steps)
	}
}

// paintStroke applies one brush segment in image space and presents the
// result immediately.
func (v *Viewer) paintStroke(fromScreen, toScreen geometry.Point2D, erase bool) {
	view := v.state.View()
	v.mu.Lock()
	frame := v.frame
	w, h := v.canvasW, v.canvasH
	v.mu.Unlock()
	if view == nil || frame == nil || w == 0 || h == 0 {
		return
	}

	iw := frame.Bounds().Dx()
	ih := frame.Bounds().Dy()
	a := view.View.ScreenToImage(fromScreen, float64(w), float64(h), float64(iw), float64(ih))
	b := view.View.ScreenToImage(toScreen, float64(w), float64(h), float64(iw), float64(ih))
	radius := float64(v.state.BrushDiameter()) / 2

	if erase {
		view.Masks.Erase(view.FrameIndex, a, b, radius)
	} else {
		id := v.state.ActiveSegment()
		seg := v.state.Segments.Get(id)
		if seg == nil {
			return
		}
		view.Masks.Paint(view.FrameIndex, iw, ih, a, b, radius, id, seg.Color)
	}

	v.state.Emit(app.EventMaskChanged, view.FrameIndex)
}

// measureDrag begins or extends the measurement draft in image space.
func (v *Viewer) measureDrag(fromScreen, toScreen geometry.Point2D) {
	view := v.state.View()
	if view == nil {
		return
	}
	if !v.state.Tracker.Dragging() {
		a, ok := v.screenToImage(fyne.NewPos(float32(fromScreen.X), float32(fromScreen.Y)))
		if !ok {
			return
		}
		v.state.Tracker.Begin(a, view.FrameIndex)
	}
	b, ok := v.screenToImage(fyne.NewPos(float32(toScreen.X), float32(toScreen.Y)))
	if !ok {
		return
	}
	v.state.Tracker.Update(b)
	v.present()
}
