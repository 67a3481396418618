package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mholecy/photo-triage/internal/constants"
	"github.com/mholecy/photo-triage/internal/duplicates"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/pressure"
	"github.com/mholecy/photo-triage/internal/store"
)

// BackgroundReport summarizes one background maintenance pass.
type BackgroundReport struct {
	Checked     int
	Analyzed    int
	Clustered   bool
	DeadlineHit bool
}

// Background runs the nightly maintenance pass: it revalidates recently
// edited photos, fills cache gaps within a time budget, and refreshes
// duplicate groups. The pass aborts early when the deadline passes or the
// device gets warm; whatever it finished stays cached for the next night.
type Background struct {
	source    photos.Source
	cache     store.Writer
	analyzer  *Analyzer
	clusterer *duplicates.Clusterer
	oracle    pressure.Oracle
	logger    *slog.Logger

	mu sync.Mutex // one pass at a time
}

// NewBackground creates a background maintenance runner.
func NewBackground(source photos.Source, cache store.Writer, analyzer *Analyzer, clusterer *duplicates.Clusterer, oracle pressure.Oracle, logger *slog.Logger) *Background {
	return &Background{
		source:    source,
		cache:     cache,
		analyzer:  analyzer,
		clusterer: clusterer,
		oracle:    oracle,
		logger:    logger,
	}
}

// Run executes one maintenance pass, stopping at batch boundaries once the
// deadline passes. Concurrent calls serialize; the later call waits.
func (b *Background) Run(ctx context.Context, deadline time.Time) (*BackgroundReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := b.logger.With("pass", "background")
	logger.Info("background pass started", "budget", time.Until(deadline).Round(time.Second).String())

	refs, err := b.source.Enumerate(ctx, photos.Filter{})
	if err != nil {
		return nil, fmt.Errorf("could not enumerate photo library: %w", err)
	}

	report := &BackgroundReport{}
	b.invalidateStale(ctx, refs, logger)

	ids := make([]string, len(refs))
	byID := make(map[string]photos.Ref, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
		byID[ref.ID] = ref
	}

	missing, err := b.cache.Missing(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("could not compute cache miss set: %w", err)
	}
	report.Checked = len(refs)

	for start := 0; start < len(missing); start += constants.ScanBatchSize {
		if ctx.Err() != nil {
			return report, nil
		}
		if time.Now().After(deadline) {
			report.DeadlineHit = true
			logger.Info("background pass out of budget", "analyzed", report.Analyzed, "remaining", len(missing)-start)
			break
		}
		if b.oracle.ThermalState().Throttling() {
			logger.Info("background pass aborted, device is warm", "thermal_state", b.oracle.ThermalState().String())
			break
		}

		end := min(start+constants.ScanBatchSize, len(missing))
		batch := make([]photos.Ref, 0, end-start)
		for _, id := range missing[start:end] {
			batch = append(batch, byID[id])
		}

		report.Analyzed += len(b.analyzer.AnalyzeBatch(ctx, batch))
	}

	if err := b.refreshDuplicates(ctx, report); err != nil {
		logger.Warn("duplicate refresh failed", "error", err)
	}

	logger.Info("background pass finished",
		"checked", report.Checked,
		"analyzed", report.Analyzed,
		"clustered", report.Clustered,
		"deadline_hit", report.DeadlineHit,
	)
	return report, nil
}

// invalidateStale drops cache entries for recently modified photos. Only the
// newest StaleCheckWindow photos are checked; older ones are assumed unedited.
func (b *Background) invalidateStale(ctx context.Context, refs []photos.Ref, logger *slog.Logger) {
	window := refs[:min(constants.StaleCheckWindow, len(refs))]
	for _, ref := range window {
		if ctx.Err() != nil {
			return
		}
		modTime, err := b.source.ModificationTime(ctx, ref)
		if err != nil {
			continue
		}
		if err := b.cache.InvalidateStale(ctx, ref.ID, modTime); err != nil {
			logger.Warn("could not invalidate stale entry", "photo", ref.ID, "error", err)
		}
	}
}

// refreshDuplicates recomputes duplicate groups when the cache holds enough
// feature prints to compare.
func (b *Background) refreshDuplicates(ctx context.Context, report *BackgroundReport) error {
	ids, err := b.cache.IDsWithFeaturePrint(ctx)
	if err != nil {
		return err
	}
	if len(ids) < 2 {
		return nil
	}
	if _, err := b.clusterer.Run(ctx); err != nil {
		return err
	}
	report.Clustered = true
	return nil
}
