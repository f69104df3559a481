package viewport

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// maxWindowSamples caps how many pixels are sampled when estimating a
// window from frame content.
const maxWindowSamples = 65536

// EstimateWindow derives a window width/center from the 5th and 95th
// luminance quantiles of a frame, for the user-invocable auto
// window/level action. Large frames are sampled on a stride.
func EstimateWindow(img image.Image) (width, center float64) {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 1, 0
	}

	stride := 1
	for total/(stride*stride) > maxWindowSamples {
		stride++
	}

	samples := make([]float64, 0, maxWindowSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma over 8-bit channels.
			luma := (299*float64(r>>8) + 587*float64(g>>8) + 114*float64(b>>8)) / 1000
			samples = append(samples, luma)
		}
	}
	if len(samples) == 0 {
		return 1, 0
	}

	sort.Float64s(samples)
	lo := stat.Quantile(0.05, stat.Empirical, samples, nil)
	hi := stat.Quantile(0.95, stat.Empirical, samples, nil)

	width = hi - lo
	if width < 1 {
		width = 1
	}
	center = (hi + lo) / 2
	return width, center
}
