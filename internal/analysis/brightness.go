package analysis

import (
	"image"

	"github.com/mholecy/photo-triage/internal/constants"
)

// BrightnessScore returns the mean normalized luminance of the image in [0,1].
// Returns 0.5 (neutral) when the image cannot be decoded, so a failed read
// never pushes a photo into the too-dark or too-bright bucket.
func BrightnessScore(img image.Image) float64 {
	if !hasPixels(img) {
		return 0.5
	}

	size := constants.BrightnessSampleSize
	gray := toGrayscale(resizeImage(img, size, size))

	var sum float64
	for x := range size {
		for y := range size {
			sum += gray[x][y]
		}
	}
	return sum / float64(size*size) / 255
}
