// Package duplicates groups near-identical photos by comparing cached
// feature prints pairwise inside a bounded forward window.
package duplicates

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mholecy/photo-triage/internal/constants"
	"github.com/mholecy/photo-triage/internal/store"
)

// Clusterer derives duplicate groups from cached feature prints.
type Clusterer struct {
	cache    store.Writer
	distance float64
	logger   *slog.Logger
}

// New creates a clusterer over the given cache. A distance of 0 selects the
// built-in grouping threshold.
func New(cache store.Writer, distance float64, logger *slog.Logger) *Clusterer {
	if distance <= 0 {
		distance = constants.DuplicateDistanceThreshold
	}
	return &Clusterer{cache: cache, distance: distance, logger: logger}
}

// candidate is one photo admitted to a clustering pass.
type candidate struct {
	photoID string
	print   []float32
}

// FindGroups clusters the given photos into duplicate groups (each of size
// >= 2). Photos without a cached feature print are skipped.
//
// Grouping is greedy and first-come in input order: each unassigned photo
// opens a group and pulls in unassigned photos from a bounded forward window
// whose feature prints lie within the distance threshold. A photo joins the
// first group that claims it and is never re-evaluated, so the result depends
// on input order. Callers that need stable groups across passes must pass a
// stable order. The window bound keeps total work linear in library size at
// the cost of missing duplicates separated by more than the window.
func (c *Clusterer) FindGroups(ctx context.Context, photoIDs []string) ([][]string, error) {
	// 1. Load feature prints, dropping photos without one
	candidates := make([]candidate, 0, len(photoIDs))
	for _, id := range photoIDs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result, err := c.cache.Get(ctx, id)
		if err != nil {
			// Cache faults degrade to miss: the photo just cannot
			// participate in this pass
			if c.logger != nil {
				c.logger.Warn("skipping photo, cache read failed", "photo_id", id, "error", err)
			}
			continue
		}
		if result == nil || len(result.FeaturePrint) == 0 {
			continue
		}
		candidates = append(candidates, candidate{photoID: id, print: result.FeaturePrint})
	}

	if len(candidates) < 2 {
		return [][]string{}, nil
	}

	// 2. Greedy windowed grouping
	assigned := make([]bool, len(candidates))
	var groups [][]string

	for i := range candidates {
		if assigned[i] {
			continue
		}

		group := []string{candidates[i].photoID}
		members := []int{i}

		end := min(i+1+constants.DuplicateScanWindow, len(candidates))
		for j := i + 1; j < end; j++ {
			if assigned[j] {
				continue
			}
			distance := store.CosineDistance(candidates[i].print, candidates[j].print)
			if distance < c.distance {
				group = append(group, candidates[j].photoID)
				members = append(members, j)
			}
		}

		if len(group) > 1 {
			for _, m := range members {
				assigned[m] = true
			}
			groups = append(groups, group)
		}
	}

	if groups == nil {
		groups = [][]string{}
	}
	return groups, nil
}

// Run clusters every cached photo with a feature print and rewrites the
// Duplicate tags to match the new grouping. Returns the groups found.
func (c *Clusterer) Run(ctx context.Context) ([][]string, error) {
	ids, err := c.cache.IDsWithFeaturePrint(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clustering candidates: %w", err)
	}

	groups, err := c.FindGroups(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Replace stale tags from earlier passes before tagging the new groups
	if err := c.cache.RemoveCategory(ctx, store.CategoryDuplicate); err != nil {
		return nil, fmt.Errorf("clear duplicate tags: %w", err)
	}

	var members []string
	for _, group := range groups {
		members = append(members, group...)
	}
	if len(members) > 0 {
		if err := c.cache.AddCategory(ctx, members, store.CategoryDuplicate); err != nil {
			return nil, fmt.Errorf("tag duplicates: %w", err)
		}
	}

	if c.logger != nil {
		c.logger.Info("duplicate clustering finished",
			"candidates", len(ids), "groups", len(groups), "members", len(members))
	}
	return groups, nil
}
