// Package categories serves smart category listings from the analysis cache,
// resolving cached photo IDs back to live library photos.
package categories

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/store"
)

// SortOption orders a category listing.
type SortOption string

const (
	SortNewest SortOption = "newest"
	SortOldest SortOption = "oldest"
	SortRandom SortOption = "random"
)

// ParseSortOption validates a sort option string, defaulting to newest.
func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(s) {
	case SortNewest, SortOldest, SortRandom:
		return SortOption(s), nil
	case "":
		return SortNewest, nil
	default:
		return "", fmt.Errorf("unknown sort option %q", s)
	}
}

// Index lists the photos of a smart category. Listings are always resolved
// against the live library, so photos deleted since the last scan never
// appear even while their cache rows linger.
type Index struct {
	cache    store.Reader
	resolver photos.Resolver
	logger   *slog.Logger
}

// NewIndex creates a category index over the given cache and library.
func NewIndex(cache store.Reader, resolver photos.Resolver, logger *slog.Logger) *Index {
	return &Index{cache: cache, resolver: resolver, logger: logger}
}

// Fetch returns up to limit live photos in the category, excluding the given
// IDs, ordered by the sort option. A limit of 0 means no limit.
func (x *Index) Fetch(ctx context.Context, category store.Category, limit int, excludeIDs []string, sortBy SortOption) ([]photos.Ref, error) {
	ids, err := x.cache.IDsMatching(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("could not list %s photos: %w", category, err)
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, skip := excluded[id]; !skip {
			kept = append(kept, id)
		}
	}

	// Over-fetch before resolving: some cached IDs will have disappeared
	// from the library, so resolving exactly limit IDs would undershoot.
	if limit > 0 && len(kept) > limit*2 {
		kept = kept[:limit*2]
	}

	refs, err := x.resolver.Resolve(ctx, kept)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s photos: %w", category, err)
	}
	if dropped := len(kept) - len(refs); dropped > 0 && x.logger != nil {
		x.logger.Debug("dropped stale cache entries from listing", "category", string(category), "count", dropped)
	}

	sortRefs(refs, sortBy)
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func sortRefs(refs []photos.Ref, sortBy SortOption) {
	switch sortBy {
	case SortOldest:
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].CreatedAt.Before(refs[j].CreatedAt)
		})
	case SortRandom:
		rand.Shuffle(len(refs), func(i, j int) {
			refs[i], refs[j] = refs[j], refs[i]
		})
	default:
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].CreatedAt.After(refs[j].CreatedAt)
		})
	}
}
