// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Analysis thresholds
const (
	// BlurThreshold is the minimum blur score (exclusive) for a photo to be
	// categorized as blurry
	BlurThreshold = 0.7

	// DarkThreshold is the brightness score (exclusive) below which a photo
	// counts as probably unwanted
	DarkThreshold = 0.15

	// BrightThreshold is the brightness score (exclusive) above which a photo
	// counts as probably unwanted
	BrightThreshold = 0.92

	// SceneConfidenceMin is the minimum classifier confidence for a scene
	// label to be kept
	SceneConfidenceMin = 0.3

	// MaxSceneLabels is the maximum number of scene labels stored per photo
	MaxSceneLabels = 5
)

// Image processing constants
const (
	// ThumbnailMaxSize is the maximum dimension (width or height) of the
	// thumbnail fed into the analysis pipeline
	ThumbnailMaxSize = 300

	// BlurSampleSize is the side length of the region sampled from the
	// edge-filtered image when computing blur variance
	BlurSampleSize = 50

	// BrightnessSampleSize is the side length of the downsampled grayscale
	// bitmap used for the brightness average
	BrightnessSampleSize = 50

	// BlurVarianceScale maps Laplacian edge variance into the [0,1] blur
	// score range; low variance (smooth image) maps to a score near 1
	BlurVarianceScale = 0.004

	// FeaturePrintDim is the dimension of the feature print embedding
	FeaturePrintDim = 64
)

// Duplicate detection constants
const (
	// DuplicateDistanceThreshold is the maximum cosine distance (exclusive)
	// between two feature prints for the photos to be grouped as duplicates
	DuplicateDistanceThreshold = 0.3

	// DuplicateScanWindow bounds the forward comparison window per candidate,
	// keeping clustering work linear in library size
	DuplicateScanWindow = 500
)

// Scan scheduling constants
const (
	// MaxConcurrentAnalysis is the width of the per-batch analysis worker pool
	MaxConcurrentAnalysis = 3

	// ScanBatchSize is the number of photos analyzed per batch
	ScanBatchSize = 20

	// StaleCheckWindow is the number of most recent photos whose cache
	// entries are checked against the library modification time; older
	// photos are assumed unedited
	StaleCheckWindow = 500

	// ThermalPauseInterval is how long a paused foreground scan waits before
	// re-checking the thermal state
	ThermalPauseInterval = 5 * time.Second

	// InterBatchYield is the pause between batches that keeps a foreground
	// scan from starving interactive work
	InterBatchYield = 100 * time.Millisecond
)

// Similarity search constants
const (
	// DefaultSimilarityLimit is the default number of similar photos returned
	DefaultSimilarityLimit = 50

	// DefaultSimilarityDistance is the default maximum cosine distance for
	// similarity search results
	DefaultSimilarityDistance = 0.5

	// HNSWMaxNeighbors is the M parameter for the in-memory HNSW graph
	HNSWMaxNeighbors = 16
)

// Web constants
const (
	// EventChannelBuffer is the buffer size of per-listener progress event channels
	EventChannelBuffer = 64
)
