// Package analysis computes per-photo signals (blur, brightness, QR presence,
// scene labels, feature print) and derives smart categories from them.
//
// The pipeline is a pure function over decoded pixels: no I/O, no persistence.
// Each signal is independently fallible and falls back to a neutral value, so
// one failed extractor never discards the rest of the result.
package analysis

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/mholecy/photo-triage/internal/classify"
	"github.com/mholecy/photo-triage/internal/constants"
	"github.com/mholecy/photo-triage/internal/store"
)

// Tuning carries the category thresholds and scenery keyword set, normally
// loaded from the embedded tuning file. Zero thresholds fall back to the
// built-in defaults.
type Tuning struct {
	BlurThreshold   float64
	DarkThreshold   float64
	BrightThreshold float64
	SceneryKeywords []string
}

// Pipeline analyzes one thumbnail at a time.
type Pipeline struct {
	classifier classify.Provider
	scenery    map[string]struct{}
	blur       float64
	dark       float64
	bright     float64
	logger     *slog.Logger

	now func() time.Time // injectable clock for tests
}

// New creates a pipeline with the given classifier and tuning.
func New(classifier classify.Provider, tuning Tuning, logger *slog.Logger) *Pipeline {
	scenery := make(map[string]struct{}, len(tuning.SceneryKeywords))
	for _, kw := range tuning.SceneryKeywords {
		scenery[kw] = struct{}{}
	}
	return &Pipeline{
		classifier: classifier,
		scenery:    scenery,
		blur:       defaultFloat(tuning.BlurThreshold, constants.BlurThreshold),
		dark:       defaultFloat(tuning.DarkThreshold, constants.DarkThreshold),
		bright:     defaultFloat(tuning.BrightThreshold, constants.BrightThreshold),
		logger:     logger,
		now:        time.Now,
	}
}

func defaultFloat(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// Analyze produces the full analysis result for a decoded thumbnail.
// It never fails: signals that cannot be extracted default to neutral values.
func (p *Pipeline) Analyze(ctx context.Context, photoID string, img image.Image) *store.Result {
	result := &store.Result{
		PhotoID:         photoID,
		BlurScore:       BlurScore(img),
		BrightnessScore: BrightnessScore(img),
		HasQRCode:       HasQRCode(img),
		SceneLabels:     p.sceneLabels(ctx, img),
		FeaturePrint:    FeaturePrint(img),
		AnalyzedAt:      p.now().UTC(),
	}

	p.deriveCategories(result)
	return result
}

// sceneLabels runs the classifier and keeps up to MaxSceneLabels labels with
// confidence above SceneConfidenceMin, descending confidence order.
// Returns an empty list on classifier failure.
func (p *Pipeline) sceneLabels(ctx context.Context, img image.Image) []string {
	labels, err := p.classifier.Classify(ctx, img)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("scene classification failed", "provider", p.classifier.Name(), "error", err)
		}
		return []string{}
	}

	kept := []string{}
	for _, label := range labels {
		if label.Confidence <= constants.SceneConfidenceMin {
			continue
		}
		kept = append(kept, label.Name)
		if len(kept) == constants.MaxSceneLabels {
			break
		}
	}
	return kept
}

// deriveCategories applies the category rules to the extracted signals.
// The rules are independent and non-exclusive; Duplicate is assigned only by
// the duplicate clusterer, never here.
func (p *Pipeline) deriveCategories(r *store.Result) {
	if r.BlurScore > p.blur {
		r.AddCategory(store.CategoryBlurry)
	}
	if r.BrightnessScore < p.dark || r.BrightnessScore > p.bright {
		r.AddCategory(store.CategoryUnwanted)
	}
	if r.HasQRCode {
		r.AddCategory(store.CategoryQRCode)
	}
	for _, label := range r.SceneLabels {
		if _, ok := p.scenery[label]; ok {
			r.AddCategory(store.CategoryScenery)
			break
		}
	}
}
