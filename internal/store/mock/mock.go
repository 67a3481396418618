// Package mock provides an in-memory implementation of the store interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mholecy/photo-triage/internal/store"
)

// Store is an in-memory store.Store with error injection hooks.
type Store struct {
	mu      sync.RWMutex
	results map[string]*store.Result

	// Error injection
	GetError        error
	MissingError    error
	MatchingError   error
	StatisticsError error
	UpsertError     error
	InvalidateError error
	ClearError      error
}

// New creates an empty mock store.
func New() *Store {
	return &Store{
		results: make(map[string]*store.Result),
	}
}

// Len returns the number of stored results.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

func cloneResult(r *store.Result) *store.Result {
	c := *r
	c.Categories = append([]store.Category(nil), r.Categories...)
	c.SceneLabels = append([]string(nil), r.SceneLabels...)
	c.FeaturePrint = append([]float32(nil), r.FeaturePrint...)
	return &c
}

// Get retrieves a result by photo ID.
func (m *Store) Get(ctx context.Context, photoID string) (*store.Result, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[photoID]
	if !ok {
		return nil, nil
	}
	return cloneResult(r), nil
}

// Missing returns the subset of photoIDs with no cached entry.
func (m *Store) Missing(ctx context.Context, photoIDs []string) ([]string, error) {
	if m.MissingError != nil {
		return nil, m.MissingError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	missing := []string{}
	for _, id := range photoIDs {
		if _, ok := m.results[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// IDsMatching returns photo IDs carrying the category.
func (m *Store) IDsMatching(ctx context.Context, category store.Category) ([]string, error) {
	if m.MatchingError != nil {
		return nil, m.MatchingError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, r := range m.results {
		if r.HasCategory(category) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// IDsWithFeaturePrint returns photo IDs with a feature print, ordered by
// analysis time then photo ID.
func (m *Store) IDsWithFeaturePrint(ctx context.Context) ([]string, error) {
	if m.MatchingError != nil {
		return nil, m.MatchingError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var withPrint []*store.Result
	for _, r := range m.results {
		if len(r.FeaturePrint) > 0 {
			withPrint = append(withPrint, r)
		}
	}
	sort.Slice(withPrint, func(i, j int) bool {
		if withPrint[i].AnalyzedAt.Equal(withPrint[j].AnalyzedAt) {
			return withPrint[i].PhotoID < withPrint[j].PhotoID
		}
		return withPrint[i].AnalyzedAt.Before(withPrint[j].AnalyzedAt)
	})
	ids := make([]string, len(withPrint))
	for i, r := range withPrint {
		ids[i] = r.PhotoID
	}
	return ids, nil
}

// Statistics counts rows and per-category membership.
func (m *Store) Statistics(ctx context.Context) (*store.Statistics, error) {
	if m.StatisticsError != nil {
		return nil, m.StatisticsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &store.Statistics{
		Total:      len(m.results),
		ByCategory: make(map[store.Category]int),
	}
	for _, r := range m.results {
		for _, c := range r.Categories {
			stats.ByCategory[c]++
		}
	}
	return stats, nil
}

// Upsert inserts or replaces a single result.
func (m *Store) Upsert(ctx context.Context, result *store.Result) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.PhotoID] = cloneResult(result)
	return nil
}

// UpsertBatch inserts or replaces results as one unit.
func (m *Store) UpsertBatch(ctx context.Context, results []*store.Result) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.results[r.PhotoID] = cloneResult(r)
	}
	return nil
}

// AddCategory tags the listed photos with the category.
func (m *Store) AddCategory(ctx context.Context, photoIDs []string, category store.Category) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range photoIDs {
		if r, ok := m.results[id]; ok {
			r.AddCategory(category)
		}
	}
	return nil
}

// RemoveCategory strips the category from every result.
func (m *Store) RemoveCategory(ctx context.Context, category store.Category) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		kept := r.Categories[:0]
		for _, c := range r.Categories {
			if c != category {
				kept = append(kept, c)
			}
		}
		r.Categories = kept
	}
	return nil
}

// InvalidateStale deletes the entry if the photo was modified after analysis.
func (m *Store) InvalidateStale(ctx context.Context, photoID string, libraryModTime time.Time) error {
	if m.InvalidateError != nil {
		return m.InvalidateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[photoID]; ok && libraryModTime.After(r.AnalyzedAt) {
		delete(m.results, photoID)
	}
	return nil
}

// ClearAll deletes every entry.
func (m *Store) ClearAll(ctx context.Context) error {
	if m.ClearError != nil {
		return m.ClearError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]*store.Result)
	return nil
}

// Close is a no-op for the mock.
func (m *Store) Close() error {
	return nil
}
