package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/mholecy/photo-triage/internal/constants"
)

// SimilarityIndex wraps an in-memory HNSW graph over cached feature prints,
// keyed by photo ID. It serves nearest-neighbor queries without scanning
// the whole cache.
type SimilarityIndex struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[string]
	idToVec map[string][]float32
}

// NewSimilarityIndex creates an empty similarity index.
func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{
		idToVec: make(map[string][]float32),
	}
}

// Rebuild replaces the index contents with every cached result that has a
// feature print.
func (s *SimilarityIndex) Rebuild(ctx context.Context, reader Reader) error {
	ids, err := reader.IDsWithFeaturePrint(ctx)
	if err != nil {
		return fmt.Errorf("list feature prints: %w", err)
	}

	g := hnsw.NewGraph[string]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	idToVec := make(map[string][]float32, len(ids))
	for _, id := range ids {
		result, err := reader.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load result %s: %w", id, err)
		}
		if result == nil || len(result.FeaturePrint) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(id, result.FeaturePrint))
		idToVec[id] = result.FeaturePrint
	}

	s.mu.Lock()
	s.graph = g
	s.idToVec = idToVec
	s.mu.Unlock()
	return nil
}

// Len returns the number of indexed photos.
func (s *SimilarityIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idToVec)
}

// FeaturePrint returns the indexed feature print for a photo, or nil.
func (s *SimilarityIndex) FeaturePrint(photoID string) []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idToVec[photoID]
}

// Search finds up to k nearest neighbors of the query feature print.
// Returns photo IDs and their cosine distances, nearest first.
func (s *SimilarityIndex) Search(query []float32, k int) ([]string, []float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil {
		return nil, nil, fmt.Errorf("index not initialized")
	}

	neighbors := s.graph.Search(query, k)

	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		if vec, ok := s.idToVec[n.Key]; ok && len(vec) > 0 {
			distances[i] = CosineDistance(query, vec)
		}
	}

	return ids, distances, nil
}
