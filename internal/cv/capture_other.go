//go:build !windows

package cv

import (
	"image"

	"jordanella.com/kanjuden-gym/internal/window"
)

// ScreenCapture is unavailable off Windows
type ScreenCapture struct{}

// NewScreenCapture always fails on this platform
func NewScreenCapture() (*ScreenCapture, error) {
	return nil, ErrUnsupportedPlatform
}

// CaptureRect always fails on this platform
func (sc *ScreenCapture) CaptureRect(r window.Rect) (*image.RGBA, error) {
	return nil, ErrUnsupportedPlatform
}
