// Package store defines the analysis result cache: interfaces shared by the
// SQLite, PostgreSQL and mock backends, plus feature-print distance helpers
// and the in-memory similarity index.
//
// All results are derived data, recomputable from source pixels. Backends
// therefore never need conflict detection: the last upsert for a photo wins.
package store

import (
	"context"
	"time"
)

// Reader provides read-only access to cached analysis results.
type Reader interface {
	// Get retrieves a result by photo ID, returns nil if not found
	Get(ctx context.Context, photoID string) (*Result, error)
	// Missing returns the subset of photoIDs with no cached entry,
	// preserving input order
	Missing(ctx context.Context, photoIDs []string) ([]string, error)
	// IDsMatching returns all photo IDs whose cached categories contain
	// the given category
	IDsMatching(ctx context.Context, category Category) ([]string, error)
	// IDsWithFeaturePrint returns photo IDs that have a stored feature
	// print, ordered by analysis time then photo ID. The duplicate
	// clusterer depends on this order being stable between passes.
	IDsWithFeaturePrint(ctx context.Context) ([]string, error)
	// Statistics returns row and per-category counts using count-style
	// queries; it must not load every row into memory
	Statistics(ctx context.Context) (*Statistics, error)
}

// Writer provides write access to the cache. Implementations serialize
// writes internally; concurrent writers for different photo IDs must not
// corrupt each other's rows.
type Writer interface {
	Reader

	// Upsert inserts or replaces a single result by photo ID
	Upsert(ctx context.Context, result *Result) error
	// UpsertBatch inserts or replaces results as one atomic unit: readers
	// observe either all rows of the batch or none of them
	UpsertBatch(ctx context.Context, results []*Result) error
	// AddCategory tags every listed photo's cached result with the category.
	// IDs without a cached entry are skipped.
	AddCategory(ctx context.Context, photoIDs []string, category Category) error
	// RemoveCategory strips the category from every cached result
	RemoveCategory(ctx context.Context, category Category) error
	// InvalidateStale deletes the entry if the photo was modified after it
	// was analyzed, forcing recomputation on next access
	InvalidateStale(ctx context.Context, photoID string, libraryModTime time.Time) error
	// ClearAll deletes every cached entry
	ClearAll(ctx context.Context) error
}

// Store is a full cache backend.
type Store interface {
	Writer

	Close() error
}
