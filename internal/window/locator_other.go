//go:build !windows

package window

type unsupportedLocator struct{}

// NewLocator returns a locator that always fails off Windows
func NewLocator() Locator {
	return unsupportedLocator{}
}

func (unsupportedLocator) Locate(class, title string) (Rect, error) {
	return Rect{}, ErrUnsupportedPlatform
}
