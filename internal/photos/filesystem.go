package photos

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// imageExtensions lists the file types treated as photos.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
}

// Filesystem is a photo source over a directory tree. Photo IDs are paths
// relative to the library root, which stay stable across rescans.
type Filesystem struct {
	root string
}

// NewFilesystem creates a photo source rooted at the given directory.
func NewFilesystem(root string) (*Filesystem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo library: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("photo library path %s is not a directory", root)
	}
	return &Filesystem{root: root}, nil
}

// Enumerate lists eligible photos, newest first.
func (f *Filesystem) Enumerate(ctx context.Context, filter Filter) ([]Ref, error) {
	excluded := filter.Excluded()

	var refs []Ref
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Skip hidden directories (e.g. .thumbnails)
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") && path != f.root {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := imageExtensions[ext]; !ok {
			return nil
		}

		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		if _, ok := excluded[rel]; ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // File vanished mid-walk; skip it
		}

		refs = append(refs, Ref{
			ID:        rel,
			Path:      path,
			CreatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate photos: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].CreatedAt.After(refs[j].CreatedAt)
	})
	return refs, nil
}

// LoadThumbnail decodes the photo downscaled to fit maxSize.
// Returns nil with no error when the file cannot be read or decoded.
func (f *Filesystem) LoadThumbnail(ctx context.Context, ref Ref, maxSize int) (image.Image, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	file, err := os.Open(f.resolvePath(ref))
	if err != nil {
		return nil, nil
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, nil
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxSize && height <= maxSize {
		return img, nil
	}

	// Calculate new dimensions keeping aspect ratio.
	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized, nil
}

// ModificationTime returns when the photo file was last modified.
func (f *Filesystem) ModificationTime(ctx context.Context, ref Ref) (time.Time, error) {
	info, err := os.Stat(f.resolvePath(ref))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat photo %s: %w", ref.ID, err)
	}
	return info.ModTime(), nil
}

// Resolve returns live refs for the given IDs, preserving input order.
// IDs whose files are gone are dropped.
func (f *Filesystem) Resolve(ctx context.Context, ids []string) ([]Ref, error) {
	refs := make([]Ref, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		path := filepath.Join(f.root, id)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		refs = append(refs, Ref{ID: id, Path: path, CreatedAt: info.ModTime()})
	}
	return refs, nil
}

func (f *Filesystem) resolvePath(ref Ref) string {
	if ref.Path != "" {
		return ref.Path
	}
	return filepath.Join(f.root, ref.ID)
}
