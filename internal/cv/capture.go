package cv

import (
	"errors"
	"image"

	"jordanella.com/kanjuden-gym/internal/window"
)

// ErrUnsupportedPlatform is returned by ScreenCapture off Windows
var ErrUnsupportedPlatform = errors.New("cv: screen capture requires windows")

// Capturer grabs the screen contents under a rectangle
type Capturer interface {
	CaptureRect(r window.Rect) (*image.RGBA, error)
}

// CapturerFunc adapts a function to Capturer
type CapturerFunc func(r window.Rect) (*image.RGBA, error)

// CaptureRect calls f(r)
func (f CapturerFunc) CaptureRect(r window.Rect) (*image.RGBA, error) {
	return f(r)
}
