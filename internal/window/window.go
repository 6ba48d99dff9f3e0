// Package window resolves the game's top-level window to a screen rectangle.
package window

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowNotFound means no window matched the class and title
	ErrWindowNotFound = errors.New("window not found")
	// ErrWindowInfoUnavailable means the window exists but its geometry could not be read
	ErrWindowInfoUnavailable = errors.New("window info unavailable")
	// ErrWindowMoved means the window no longer covers the cached rectangle
	ErrWindowMoved = errors.New("window moved or resized")
	// ErrUnsupportedPlatform is returned by the host locator off Windows
	ErrUnsupportedPlatform = errors.New("window: lookup requires windows")
)

// Rect is an outer window rectangle in screen pixels. Right and Bottom are exclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the horizontal extent
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Empty reports whether r covers no pixels
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Locator finds a top-level window by exact class name and title
type Locator interface {
	Locate(class, title string) (Rect, error)
}

// Validate re-resolves the window and fails with ErrWindowMoved when it no
// longer matches cached
func Validate(l Locator, class, title string, cached Rect) error {
	current, err := l.Locate(class, title)
	if err != nil {
		return err
	}
	if current != cached {
		return fmt.Errorf("%w: was %s, now %s", ErrWindowMoved, cached, current)
	}
	return nil
}
