//go:build !windows

package input

// SendInputDriver is unavailable off Windows
type SendInputDriver struct{}

// NewSendInputDriver always fails on this platform
func NewSendInputDriver() (*SendInputDriver, error) {
	return nil, ErrUnsupportedPlatform
}

// Press always fails on this platform
func (d *SendInputDriver) Press(keys ...ScanCode) error {
	return ErrUnsupportedPlatform
}

// Release always fails on this platform
func (d *SendInputDriver) Release(keys ...ScanCode) error {
	return ErrUnsupportedPlatform
}
