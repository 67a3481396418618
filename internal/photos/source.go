// Package photos defines the photo library collaborators the analysis engine
// consumes: a photo source for enumeration and thumbnail loading, and a
// people album for the externally computed People category.
package photos

import (
	"context"
	"image"
	"time"
)

// Ref identifies one library photo. ID is the stable cache key.
type Ref struct {
	ID        string
	Path      string
	CreatedAt time.Time
}

// Filter narrows an enumeration.
type Filter struct {
	// ExcludeIDs removes specific photos from the result (e.g. already trashed)
	ExcludeIDs []string
}

// Excluded returns the exclusion set for membership checks.
func (f Filter) Excluded() map[string]struct{} {
	set := make(map[string]struct{}, len(f.ExcludeIDs))
	for _, id := range f.ExcludeIDs {
		set[id] = struct{}{}
	}
	return set
}

// Source provides access to the photo library. Implementations must be
// local-only: loading a thumbnail never triggers a remote download.
type Source interface {
	// Enumerate lists eligible photos, newest first
	Enumerate(ctx context.Context, filter Filter) ([]Ref, error)
	// LoadThumbnail decodes the photo downscaled to fit maxSize.
	// Returns nil with no error when the photo cannot be loaded.
	LoadThumbnail(ctx context.Context, ref Ref, maxSize int) (image.Image, error)
	// ModificationTime returns when the photo was last modified
	ModificationTime(ctx context.Context, ref Ref) (time.Time, error)
}

// Resolver maps cached photo IDs back to live refs. IDs whose photos have
// disappeared from the library are simply absent from the result.
type Resolver interface {
	// Resolve returns live refs for the given IDs, preserving input order
	Resolve(ctx context.Context, ids []string) ([]Ref, error)
}

// People exposes the externally maintained people album. The analysis engine
// never computes this category itself.
type People interface {
	// AlbumAssetCount returns the number of photos in the people album
	AlbumAssetCount(ctx context.Context) (int, error)
}
