package analysis

import (
	"image"

	"github.com/mholecy/photo-triage/internal/constants"
)

// laplacianKernel is a 3x3 edge-detecting convolution kernel. Edge-rich
// (sharp) images produce high-variance responses; smooth or blurred images
// produce flat ones.
var laplacianKernel = [3][3]float64{
	{0, 1, 0},
	{1, -4, 1},
	{0, 1, 0},
}

// BlurScore estimates how blurry an image is, in [0,1] with higher = blurrier.
// Returns 0 if the image has no decodable backing buffer.
func BlurScore(img image.Image) float64 {
	if !hasPixels(img) {
		return 0
	}

	// 1. Work on a bounded grayscale copy so cost is independent of input size
	size := constants.BlurSampleSize
	gray := toGrayscale(resizeImage(img, size, size))

	// 2. Convolve with the Laplacian kernel, skipping the border
	responses := make([]float64, 0, (size-2)*(size-2))
	for x := 1; x < size-1; x++ {
		for y := 1; y < size-1; y++ {
			var sum float64
			for kx := -1; kx <= 1; kx++ {
				for ky := -1; ky <= 1; ky++ {
					sum += gray[x+kx][y+ky] * laplacianKernel[kx+1][ky+1]
				}
			}
			responses = append(responses, sum)
		}
	}
	if len(responses) == 0 {
		return 0
	}

	// 3. Variance of edge responses; low variance means few edges, i.e. blur
	var mean float64
	for _, r := range responses {
		mean += r
	}
	mean /= float64(len(responses))

	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(responses))

	// 4. Map variance into [0,1]: smooth images score near 1
	score := 1 - variance*constants.BlurVarianceScale
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
