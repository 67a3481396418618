// Package classify provides scene classification for photo thumbnails.
//
// Classification is pluggable behind the Provider interface: the built-in
// Heuristic classifier works everywhere with zero dependencies, and
// VisionServer talks to a local inference server when one is configured.
// Both run on-device; there is no cloud path.
package classify

import (
	"context"
	"image"
)

// Label is one scene/object label with classifier confidence.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Provider classifies a photo thumbnail into scene labels.
type Provider interface {
	// Classify returns scene labels for the image, highest confidence first.
	Classify(ctx context.Context, img image.Image) ([]Label, error)
	// Name returns the provider name for logging
	Name() string
}
