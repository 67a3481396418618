// Package scan runs the analysis pipeline over the photo library: a batch
// analyzer with a bounded worker pool, a foreground orchestrator that reports
// live progress and yields to the device, and a time-boxed background pass.
package scan

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mholecy/photo-triage/internal/analysis"
	"github.com/mholecy/photo-triage/internal/constants"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/store"
)

// Analyzer runs the pipeline over photos and keeps the cache current.
type Analyzer struct {
	source   photos.Source
	cache    store.Writer
	pipeline *analysis.Pipeline
	logger   *slog.Logger

	workers int
}

// NewAnalyzer creates a batch analyzer with the default worker pool width.
func NewAnalyzer(source photos.Source, cache store.Writer, pipeline *analysis.Pipeline, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		source:   source,
		cache:    cache,
		pipeline: pipeline,
		logger:   logger,
		workers:  constants.MaxConcurrentAnalysis,
	}
}

// AnalyzePhoto returns the cached result when it is still fresh, otherwise
// runs the pipeline on the photo's thumbnail and writes the result back.
// Returns nil when the photo cannot be loaded.
func (a *Analyzer) AnalyzePhoto(ctx context.Context, ref photos.Ref) (*store.Result, error) {
	cached, err := a.freshResult(ctx, ref)
	if err != nil {
		// The cache degrades to a miss; results are recomputable.
		a.logger.Warn("cache lookup failed", "photo", ref.ID, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	result := a.analyze(ctx, ref)
	if result == nil {
		return nil, nil
	}
	if err := a.cache.Upsert(ctx, result); err != nil {
		a.logger.Error("could not cache result", "photo", ref.ID, "error", err)
	}
	return result, nil
}

// AnalyzeBatch analyzes a batch of photos concurrently and writes all results
// to the cache as a single atomic batch. Photos whose thumbnails cannot be
// loaded are dropped without failing the batch. When the context is canceled
// mid-batch, the results collected so far are still written and returned.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, refs []photos.Ref) []*store.Result {
	collected := make(chan *store.Result, len(refs))
	semaphore := make(chan struct{}, a.workers)

	var wg sync.WaitGroup
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(ref photos.Ref) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}

			cached, err := a.freshResult(ctx, ref)
			if err != nil {
				a.logger.Warn("cache lookup failed", "photo", ref.ID, "error", err)
			}
			if cached != nil {
				collected <- cached
				return
			}

			if result := a.analyze(ctx, ref); result != nil {
				collected <- result
			}
		}(ref)
	}

	wg.Wait()
	close(collected)

	results := make([]*store.Result, 0, len(refs))
	for result := range collected {
		results = append(results, result)
	}

	if len(results) > 0 {
		if err := a.cache.UpsertBatch(ctx, results); err != nil {
			a.logger.Error("could not write batch to cache", "count", len(results), "error", err)
		}
	}
	return results
}

// analyze loads the thumbnail and runs the pipeline. Returns nil when the
// photo cannot be decoded; unreadable photos are simply skipped.
func (a *Analyzer) analyze(ctx context.Context, ref photos.Ref) *store.Result {
	img, err := a.source.LoadThumbnail(ctx, ref, constants.ThumbnailMaxSize)
	if err != nil {
		a.logger.Warn("could not load thumbnail", "photo", ref.ID, "error", err)
		return nil
	}
	if img == nil {
		return nil
	}
	return a.pipeline.Analyze(ctx, ref.ID, img)
}

// freshResult returns the cached result when it predates no library edit,
// nil when there is no usable entry.
func (a *Analyzer) freshResult(ctx context.Context, ref photos.Ref) (*store.Result, error) {
	cached, err := a.cache.Get(ctx, ref.ID)
	if err != nil || cached == nil {
		return nil, err
	}

	modTime, err := a.source.ModificationTime(ctx, ref)
	if err != nil {
		// Cannot tell whether the photo changed; keep the cached result
		// rather than re-analyzing on every pass.
		return cached, nil
	}
	if modTime.After(cached.AnalyzedAt) {
		return nil, nil
	}
	return cached, nil
}
