package analysis

import (
	"image"
	"math"
	"testing"
)

func TestBrightnessScore(t *testing.T) {
	tests := []struct {
		name      string
		img       image.Image
		want      float64
		tolerance float64
	}{
		{
			name:      "black image",
			img:       flatImage(100, 100, 0),
			want:      0.0,
			tolerance: 0.01,
		},
		{
			name:      "white image",
			img:       flatImage(100, 100, 255),
			want:      1.0,
			tolerance: 0.01,
		},
		{
			name:      "mid gray image",
			img:       flatImage(100, 100, 128),
			want:      0.5,
			tolerance: 0.01,
		},
		{
			name:      "empty image falls back to neutral",
			img:       image.NewGray(image.Rect(0, 0, 0, 0)),
			want:      0.5,
			tolerance: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := BrightnessScore(tt.img)
			if math.Abs(score-tt.want) > tt.tolerance {
				t.Errorf("BrightnessScore() = %v, want %v ± %v", score, tt.want, tt.tolerance)
			}
		})
	}
}
