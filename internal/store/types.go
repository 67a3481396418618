package store

import (
	"time"
)

// Category is a smart-categorization bucket derived from photo analysis.
type Category string

// Categories assigned by the analysis pipeline and the duplicate clusterer.
// People is intentionally absent: it is computed by an external collaborator
// and never cached here.
const (
	CategoryScenery   Category = "scenery"
	CategoryBlurry    Category = "blurry"
	CategoryUnwanted  Category = "probably_unwanted"
	CategoryQRCode    Category = "qr_code"
	CategoryDuplicate Category = "duplicate"
)

// AllCategories lists every cacheable category in a stable order.
var AllCategories = []Category{
	CategoryScenery,
	CategoryBlurry,
	CategoryUnwanted,
	CategoryQRCode,
	CategoryDuplicate,
}

// ParseCategory maps a string to a known category.
// Returns false for unknown names.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Result is one photo's cached analysis outcome, keyed by PhotoID.
type Result struct {
	PhotoID         string
	Categories      []Category // set semantics, insertion order preserved
	BlurScore       float64    // [0,1], higher = blurrier
	BrightnessScore float64    // [0,1], mean normalized luminance
	HasQRCode       bool
	SceneLabels     []string  // up to 5 labels, descending confidence
	FeaturePrint    []float32 // nil when extraction failed
	AnalyzedAt      time.Time
}

// HasCategory reports whether the result carries the given category.
func (r *Result) HasCategory(c Category) bool {
	for _, have := range r.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// AddCategory appends the category unless it is already present.
func (r *Result) AddCategory(c Category) {
	if !r.HasCategory(c) {
		r.Categories = append(r.Categories, c)
	}
}

// Statistics aggregates cache contents without materializing rows.
type Statistics struct {
	Total      int
	ByCategory map[Category]int
}
