package templates

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"

	"jordanella.com/kanjuden-gym/internal/cv"
)

type cacheEntry struct {
	tmpl    cv.Template
	preload bool
	gray    *image.Gray
	failed  error
}

// ImageCache decodes template PNGs lazily and keeps them as grayscale.
// Each image is read from disk at most once: a failed load is remembered and
// returned by every later lookup.
type ImageCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	stats   CacheStats
}

// CacheStats counts lookups. LoadFail includes failed preloads.
type CacheStats struct {
	Hits        int64
	Misses      int64
	Loads       int64
	LoadFail    int64
	PreloadFail int64
}

func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]*cacheEntry)}
}

// Register replaces any entry of the same name. Nothing is read from disk
// until PreloadAll or the first Get.
func (ic *ImageCache) Register(tmpl cv.Template, preload bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.entries[tmpl.Name] = &cacheEntry{tmpl: tmpl, preload: preload}
}

func (ic *ImageCache) Get(name string) (*image.Gray, cv.Template, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	e, ok := ic.entries[name]
	if !ok {
		return nil, cv.Template{}, fmt.Errorf("template '%s' not registered", name)
	}
	if e.gray != nil {
		ic.stats.Hits++
		return e.gray, e.tmpl, nil
	}
	if e.failed != nil {
		return nil, e.tmpl, e.failed
	}
	if err := ic.fill(e); err != nil {
		return nil, e.tmpl, err
	}
	ic.stats.Misses++
	return e.gray, e.tmpl, nil
}

// PreloadAll loads every preload entry that has not been tried yet and
// returns the joined failures.
func (ic *ImageCache) PreloadAll() error {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	var errs []error
	for name, e := range ic.entries {
		if !e.preload || e.gray != nil || e.failed != nil {
			continue
		}
		if err := ic.fill(e); err != nil {
			ic.stats.PreloadFail++
			errs = append(errs, fmt.Errorf("template %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (ic *ImageCache) Stats() CacheStats {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.stats
}

// fill decodes e's image and records the outcome. Caller holds ic.mu.
func (ic *ImageCache) fill(e *cacheEntry) error {
	gray, err := decodeGray(e.tmpl.Path)
	if err != nil {
		e.failed = err
		ic.stats.LoadFail++
		return err
	}
	e.gray = gray
	ic.stats.Loads++
	return nil
}

func decodeGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template image not found: %s", path)
		}
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", path, err)
	}
	return toGray(img), nil
}

// toGray uses the same luma as observations so color templates still
// correlate with grayscale frames.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return cv.GrayFromRGBA(rgba)
}
