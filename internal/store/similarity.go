package store

import (
	"context"
	"fmt"

	"github.com/mholecy/photo-triage/internal/constants"
)

// SimilarMatch is one similarity search hit.
type SimilarMatch struct {
	PhotoID  string  `json:"photo_id"`
	Distance float64 `json:"distance"`
}

// SimilarFinder is implemented by backends with native vector search.
type SimilarFinder interface {
	FindSimilar(ctx context.Context, query []float32, limit int, maxDistance float64) ([]string, []float64, error)
}

// Searcher answers "photos like this one" queries. Backends with native
// vector search are used directly; everything else goes through an in-memory
// index rebuilt from the cache on first use.
type Searcher struct {
	cache Reader
	index *SimilarityIndex
}

// NewSearcher creates a similarity searcher over the cache.
func NewSearcher(cache Reader) *Searcher {
	return &Searcher{cache: cache, index: NewSimilarityIndex()}
}

// Similar returns up to limit photos within maxDistance of the given photo's
// feature print, nearest first. The photo itself is excluded. Returns nil
// when the photo has no cached feature print. Zero limit and distance fall
// back to the defaults.
func (s *Searcher) Similar(ctx context.Context, photoID string, limit int, maxDistance float64) ([]SimilarMatch, error) {
	if limit <= 0 {
		limit = constants.DefaultSimilarityLimit
	}
	if maxDistance <= 0 {
		maxDistance = constants.DefaultSimilarityDistance
	}

	result, err := s.cache.Get(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("could not load photo %s: %w", photoID, err)
	}
	if result == nil || len(result.FeaturePrint) == 0 {
		return nil, nil
	}

	var ids []string
	var distances []float64
	if finder, ok := s.cache.(SimilarFinder); ok {
		// Ask for one extra hit: the query photo matches itself at distance 0.
		ids, distances, err = finder.FindSimilar(ctx, result.FeaturePrint, limit+1, maxDistance)
		if err != nil {
			return nil, fmt.Errorf("similarity search failed: %w", err)
		}
	} else {
		// Rebuild lazily: only when the query photo is not indexed yet.
		if s.index.FeaturePrint(photoID) == nil {
			if err := s.index.Rebuild(ctx, s.cache); err != nil {
				return nil, fmt.Errorf("could not build similarity index: %w", err)
			}
		}
		ids, distances, err = s.index.Search(result.FeaturePrint, limit+1)
		if err != nil {
			return nil, fmt.Errorf("similarity search failed: %w", err)
		}
	}

	matches := make([]SimilarMatch, 0, limit)
	for i, id := range ids {
		if id == photoID || distances[i] > maxDistance {
			continue
		}
		matches = append(matches, SimilarMatch{PhotoID: id, Distance: distances[i]})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}
