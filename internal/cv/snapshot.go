package cv

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// SavePNG writes the frame to path, replacing any previous file atomically
func SavePNG(frame Frame, path string) error {
	if frame.Empty() {
		return fmt.Errorf("refusing to write empty frame")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, frame.Image()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
