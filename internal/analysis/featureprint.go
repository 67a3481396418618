package analysis

import (
	"image"
	"math"

	"github.com/mholecy/photo-triage/internal/constants"
)

// FeaturePrint computes a fixed-size embedding of the image suitable for
// nearest-neighbor cosine-distance comparison. Near-identical photos produce
// near-identical prints.
//
// The embedding is the low-frequency corner of a 32x32 grayscale DCT: the
// top-left 8x8 coefficient block minus the DC component (backfilled from the
// following coefficients), L2 normalized. Returns nil when extraction fails.
func FeaturePrint(img image.Image) []float32 {
	if !hasPixels(img) {
		return nil
	}

	// 1. Resize to 32x32 for DCT processing
	gray := toGrayscale(resizeImage(img, 32, 32))

	// 2. Compute 32x32 DCT (Discrete Cosine Transform)
	dct := computeDCT(gray)

	// 3. Extract top-left 8x8 DCT coefficients (low frequencies)
	//    excluding DC component (0,0)
	dim := constants.FeaturePrintDim
	coeffs := make([]float64, dim)
	idx := 0
	for u := range 8 {
		for v := range 8 {
			if u == 0 && v == 0 {
				continue // Skip DC component
			}
			if idx < dim {
				coeffs[idx] = dct[u][v]
				idx++
			}
		}
	}
	// Fill remaining with the last few coefficients.
	for ; idx < dim; idx++ {
		coeffs[idx] = dct[idx/8][idx%8]
	}

	// 4. L2 normalize so cosine distance behaves across exposure differences
	var norm float64
	for _, c := range coeffs {
		norm += c * c
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}

	vec := make([]float32, dim)
	for i, c := range coeffs {
		vec[i] = float32(c / norm)
	}
	return vec
}

// computeDCT computes the Discrete Cosine Transform of a grayscale image.
func computeDCT(gray [][]float64) [][]float64 {
	size := len(gray)
	dct := make([][]float64, size)
	for i := range dct {
		dct[i] = make([]float64, size)
	}

	// Precompute cosine values for efficiency.
	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := range size {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	// DCT-II formula.
	for u := range size {
		for v := range size {
			var sum float64
			for x := range size {
				for y := range size {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}

	return dct
}
