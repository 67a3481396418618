package classify

import (
	"context"
	"image"
	"math"
	"sort"
)

// Heuristic is the built-in scene classifier. It works on coarse color and
// luminance statistics of the thumbnail, which is enough to label the broad
// outdoor scenes the scenery category cares about. It is deterministic and
// needs no model files.
type Heuristic struct{}

// NewHeuristic creates the built-in classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns the provider name for logging
func (h *Heuristic) Name() string {
	return "heuristic"
}

// colorStats aggregates per-region color fractions of a downsampled image.
type colorStats struct {
	blueTop    float64 // blue-dominant pixels in the top half
	blueBottom float64 // blue-dominant pixels in the bottom half
	green      float64 // green-dominant pixels overall
	warm       float64 // warm (red/orange) pixels overall
	bright     float64 // near-white pixels overall
	dark       float64 // near-black pixels overall
	meanLuma   float64
}

// Classify returns scene labels for the image, highest confidence first.
func (h *Heuristic) Classify(ctx context.Context, img image.Image) ([]Label, error) {
	if img == nil {
		return nil, nil
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	stats := sampleColors(img)

	var labels []Label
	add := func(name string, confidence float64) {
		if confidence > 1 {
			confidence = 1
		}
		labels = append(labels, Label{Name: name, Confidence: confidence})
	}

	if stats.blueTop > 0.35 {
		add("sky", 0.4+stats.blueTop*0.6)
	}
	if stats.blueBottom > 0.4 {
		add("ocean", 0.3+stats.blueBottom*0.6)
	}
	if stats.green > 0.35 {
		add("forest", 0.3+stats.green*0.6)
	}
	if stats.warm > 0.3 && stats.meanLuma > 0.25 && stats.meanLuma < 0.75 {
		add("sunset", 0.3+stats.warm*0.5)
	}
	if stats.bright > 0.6 && stats.meanLuma > 0.75 {
		add("snow", 0.25+stats.bright*0.5)
	}
	if stats.dark > 0.7 {
		add("night", 0.3+stats.dark*0.4)
	}
	if stats.blueTop > 0.25 && stats.green > 0.2 {
		add("landscape", 0.3+(stats.blueTop+stats.green)*0.3)
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
	return labels, nil
}

// sampleColors walks a coarse grid over the image, classifying each sampled
// pixel by hue family. A fixed 64x64 grid keeps cost independent of image size.
func sampleColors(img image.Image) colorStats {
	const grid = 64
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	stepX := math.Max(1, float64(width)/grid)
	stepY := math.Max(1, float64(height)/grid)

	var stats colorStats
	var samples, topSamples, bottomSamples float64
	var lumaSum float64

	for fy := 0.0; fy < float64(height); fy += stepY {
		for fx := 0.0; fx < float64(width); fx += stepX {
			x := bounds.Min.X + int(fx)
			y := bounds.Min.Y + int(fy)
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)

			// ITU-R BT.601 luma formula.
			luma := (0.299*r + 0.587*g + 0.114*b) / 255
			lumaSum += luma
			samples++

			top := fy < float64(height)/2
			if top {
				topSamples++
			} else {
				bottomSamples++
			}

			switch {
			case luma > 0.85 && maxDiff(r, g, b) < 40:
				stats.bright++
			case luma < 0.12:
				stats.dark++
			case b > r*1.15 && b > g*1.1:
				if top {
					stats.blueTop++
				} else {
					stats.blueBottom++
				}
			case g > r*1.1 && g > b*1.15:
				stats.green++
			case r > g*1.25 && r > b*1.4:
				stats.warm++
			}
		}
	}

	if samples == 0 {
		return stats
	}
	if topSamples > 0 {
		stats.blueTop /= topSamples
	}
	if bottomSamples > 0 {
		stats.blueBottom /= bottomSamples
	}
	stats.green /= samples
	stats.warm /= samples
	stats.bright /= samples
	stats.dark /= samples
	stats.meanLuma = lumaSum / samples
	return stats
}

func maxDiff(a, b, c float64) float64 {
	lo := math.Min(a, math.Min(b, c))
	hi := math.Max(a, math.Max(b, c))
	return hi - lo
}
