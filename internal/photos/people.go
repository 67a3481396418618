package photos

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FolderAlbum is a People implementation backed by a directory of curated
// people photos (populated by an external face-recognition tool).
type FolderAlbum struct {
	dir string
}

// NewFolderAlbum creates a people album over the given directory.
// A missing directory is a valid empty album.
func NewFolderAlbum(dir string) *FolderAlbum {
	return &FolderAlbum{dir: dir}
}

// AlbumAssetCount returns the number of photos in the people album.
func (a *FolderAlbum) AlbumAssetCount(ctx context.Context) (int, error) {
	if a.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := imageExtensions[ext]; ok {
			count++
		}
	}
	return count, nil
}
