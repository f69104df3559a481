// Package colorutil provides shared color utilities for the viewer.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used throughout the application.
var (
	Black      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow     = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange     = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	MeasureRed = color.RGBA{R: 237, G: 77, B: 77, A: 255}
)

// SegmentColor returns a display color for the nth segment (0-based).
// Hues are spaced by the golden angle so neighbouring segments stay
// visually distinct regardless of how many exist.
func SegmentColor(n int) color.RGBA {
	hue := float64(n*137) // golden-angle spacing, degrees
	for hue >= 360 {
		hue -= 360
	}
	c := colorful.Hsv(hue, 0.85, 0.95)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
