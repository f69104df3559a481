package render

import (
	"fmt"
	"image"
	"image/color"
)

// tinyPatterns contains 3x5 pixel patterns for the characters the
// measurement labels use. Each glyph is 5 rows of 3 bits.
var tinyPatterns = map[rune][5]uint8{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b001, 0b001, 0b001},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// formatDistance renders a pixel distance for the on-canvas label.
func formatDistance(px float64) string {
	return fmt.Sprintf("%.1f PX", px)
}

// drawLine draws a thick line between two points using Bresenham's
// algorithm.
func drawLine(out *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := out.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					out.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// fillCircle draws a filled endpoint marker.
func fillCircle(out *image.RGBA, cx, cy, r int, col color.RGBA) {
	bounds := out.Bounds()
	r2 := r * r
	for y := cy - r; y <= cy+r; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				out.SetRGBA(x, y, col)
			}
		}
	}
}

// drawTinyLabel draws text centered at (centerX, centerY) with the 3x5
// glyph set, scale 2.
func drawTinyLabel(out *image.RGBA, label string, centerX, centerY int, col color.RGBA) {
	const scale = 2
	charWidth := 3 * scale
	charHeight := 5 * scale
	spacing := scale

	labelWidth := len(label)*charWidth + (len(label)-1)*spacing
	startX := centerX - labelWidth/2
	startY := centerY - charHeight/2

	bounds := out.Bounds()

	for i, ch := range label {
		pattern, ok := tinyPatterns[ch]
		if !ok {
			continue
		}
		charX := startX + i*(charWidth+spacing)

		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if (pattern[row] & (1 << (2 - c))) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := charX + c*scale + dx
						py := startY + row*scale + dy
						if px >= bounds.Min.X && px < bounds.Max.X &&
							py >= bounds.Min.Y && py < bounds.Max.Y {
							out.SetRGBA(px, py, col)
						}
					}
				}
			}
		}
	}
}
