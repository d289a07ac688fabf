// Package thumbnail generates and disk-caches resized JPEG thumbnails of
// artwork files resolved from the collection index, for the HTTP artwork
// endpoint. Resizing is CPU-bound and reprocessing the same (path,
// dimension) pair on every request would be wasteful, so results are cached
// by a hash of that pair, following the disk-cache pattern the teacher uses
// for terminal album art.
package thumbnail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
)

// Thumbnailer resolves a source image on disk to a cached, resized JPEG and
// returns the cached file's path.
type Thumbnailer interface {
	GetThumbnail(ctx context.Context, sourcePath string, maxDimension int) (string, error)
}

// Cache generates thumbnails under dir, named by a hash of the source path
// and target dimension so repeated requests are served straight from disk.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir, creating it if absent.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func cacheKey(sourcePath string, maxDimension uint) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", sourcePath, maxDimension)))
	return hex.EncodeToString(h[:])
}

// GetThumbnail returns the path to a JPEG thumbnail of sourcePath no larger
// than maxDimension on its longest side, generating and caching it on first
// request. ctx is honored before any work begins, so a client that
// disconnects while queued behind other requests doesn't cost a decode.
func (c *Cache) GetThumbnail(ctx context.Context, sourcePath string, maxDimension int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if maxDimension <= 0 {
		return "", fmt.Errorf("invalid max dimension %d", maxDimension)
	}

	cachedPath := filepath.Join(c.dir, cacheKey(sourcePath, uint(maxDimension))+".jpg")
	if _, err := os.Stat(cachedPath); err == nil {
		return cachedPath, nil
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open artwork %s: %w", sourcePath, err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("decode artwork %s: %w", sourcePath, err)
	}

	resized := resizeToFit(img, uint(maxDimension))

	tmp, err := os.CreateTemp(c.dir, ".thumb-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp thumbnail file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // Rename below removes it on success

	if err := jpeg.Encode(tmp, resized, &jpeg.Options{Quality: 85}); err != nil {
		tmp.Close() //nolint:errcheck
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp thumbnail file: %w", err)
	}
	if err := os.Rename(tmpPath, cachedPath); err != nil {
		return "", fmt.Errorf("install thumbnail: %w", err)
	}
	return cachedPath, nil
}

// resizeToFit scales img down so its longest side is maxDimension, leaving
// it untouched if it is already smaller. Aspect ratio is preserved; unlike
// the original's pad-to-square behavior, the thumbnail keeps its native
// shape since the HTTP response carries its own width/height.
func resizeToFit(img image.Image, maxDimension uint) image.Image {
	b := img.Bounds()
	width, height := uint(b.Dx()), uint(b.Dy())
	if width <= maxDimension && height <= maxDimension {
		return img
	}
	if width >= height {
		return resize.Resize(maxDimension, 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, maxDimension, img, resize.Lanczos3)
}
