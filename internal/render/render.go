// Package render produces the composited viewport image: base frame
// through the viewport transform and window/level remap, segmentation
// overlay, then measurement graphics. The draw order is fixed.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"dicom-viewer/internal/measure"
	"dicom-viewer/internal/viewport"
	"dicom-viewer/pkg/colorutil"
	"dicom-viewer/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// Params carries everything one composite needs. Compose is a pure
// read-and-draw: it mutates nothing, so callers needing zero-lag
// feedback can apply a paint stroke and compose back-to-back.
type Params struct {
	CanvasW, CanvasH int

	Frame *image.RGBA // nil when the frame is unavailable
	View  *viewport.State

	Segmentation        *image.RGBA // visual cache for the frame, nil when empty
	SegmentationOpacity float64
	SegmentationVisible bool

	Measurements []*measure.Measurement
	Draft        *measure.Measurement
}

var background = color.RGBA{R: 12, G: 12, B: 14, A: 255}

// Compose renders the full frame composite.
func Compose(p Params) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, p.CanvasW, p.CanvasH))
	draw.Draw(out, out.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	if p.Frame == nil || p.View == nil {
		return out
	}

	iw := float64(p.Frame.Bounds().Dx())
	ih := float64(p.Frame.Bounds().Dy())
	cw := float64(p.CanvasW)
	ch := float64(p.CanvasH)

	topLeft := p.View.ImageToScreen(geometry.Point2D{}, cw, ch, iw, ih)
	bottomRight := p.View.ImageToScreen(geometry.Point2D{X: iw, Y: ih}, cw, ch, iw, ih)
	placement := geometry.Rect{
		X:      topLeft.X,
		Y:      topLeft.Y,
		Width:  bottomRight.X - topLeft.X,
		Height: bottomRight.Y - topLeft.Y,
	}
	dst := image.Rect(
		int(placement.X), int(placement.Y),
		int(placement.X+placement.Width), int(placement.Y+placement.Height),
	)

	base := applyWindowLevel(p.Frame, p.View.ContrastPercent(), p.View.BrightnessPercent())
	xdraw.ApproxBiLinear.Scale(out, dst, base, base.Bounds(), xdraw.Over, nil)

	if p.SegmentationVisible && p.Segmentation != nil && p.SegmentationOpacity > 0 {
		opacity := geometry.Clamp(p.SegmentationOpacity, 0, 1)
		opts := &xdraw.Options{
			SrcMask: image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)}),
		}
		xdraw.ApproxBiLinear.Scale(out, dst, p.Segmentation, p.Segmentation.Bounds(), xdraw.Over, opts)
	}

	for _, m := range p.Measurements {
		drawMeasurement(out, m, p.View, cw, ch, iw, ih, colorutil.MeasureRed)
	}
	if p.Draft != nil {
		drawMeasurement(out, p.Draft, p.View, cw, ch, iw, ih, colorutil.Yellow)
	}

	return out
}

// applyWindowLevel remaps the frame through a 256-entry lookup built
// from the contrast/brightness percentages. Display-only; the source
// pixels are never mutated.
func applyWindowLevel(src *image.RGBA, contrastPct, brightnessPct float64) *image.RGBA {
	if contrastPct == 100 && brightnessPct == 100 {
		return src
	}

	contrast := contrastPct / 100
	brightness := brightnessPct / 100

	var lut [256]uint8
	for v := 0; v < 256; v++ {
		f := float64(v) / 255 * brightness
		f = (f-0.5)*contrast + 0.5
		lut[v] = uint8(geometry.Clamp(f, 0, 1)*255 + 0.5)
	}

	out := image.NewRGBA(src.Bounds())
	for i := 0; i+3 < len(src.Pix); i += 4 {
		out.Pix[i] = lut[src.Pix[i]]
		out.Pix[i+1] = lut[src.Pix[i+1]]
		out.Pix[i+2] = lut[src.Pix[i+2]]
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// drawMeasurement renders one annotation: the line, endpoint markers,
// and a pixel-distance label at the midpoint. Geometry is transformed to
// screen space, so line widths stay visually constant across zoom.
func drawMeasurement(out *image.RGBA, m *measure.Measurement, view *viewport.State, cw, ch, iw, ih float64, col color.RGBA) {
	a := view.ImageToScreen(m.Start, cw, ch, iw, ih)
	b := view.ImageToScreen(m.End, cw, ch, iw, ih)

	drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), col, 2)
	fillCircle(out, int(a.X), int(a.Y), 3, col)
	fillCircle(out, int(b.X), int(b.Y), 3, col)

	mid := geometry.Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}.Center()
	drawTinyLabel(out, formatDistance(m.DistanceInPixels), int(mid.X), int(mid.Y)-10, col)
}
