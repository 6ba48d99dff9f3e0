//go:build windows

package window

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW   = user32.NewProc("FindWindowW")
	procGetWindowInfo = user32.NewProc("GetWindowInfo")
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

// windowInfo mirrors WINDOWINFO
type windowInfo struct {
	Size           uint32
	Window         rect32
	Client         rect32
	Style          uint32
	ExStyle        uint32
	WindowStatus   uint32
	WindowBordersX uint32
	WindowBordersY uint32
	AtomWindowType uint16
	CreatorVersion uint16
}

// Win32Locator resolves windows through FindWindowW and GetWindowInfo
type Win32Locator struct{}

// NewLocator returns the host locator
func NewLocator() Locator {
	return Win32Locator{}
}

// Locate returns the outer rectangle (rcWindow) of the matching window
func (Win32Locator) Locate(class, title string) (Rect, error) {
	classPtr, err := optionalUTF16(class)
	if err != nil {
		return Rect{}, fmt.Errorf("encode class %q: %w", class, err)
	}
	titlePtr, err := optionalUTF16(title)
	if err != nil {
		return Rect{}, fmt.Errorf("encode title %q: %w", title, err)
	}

	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(classPtr)), uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return Rect{}, fmt.Errorf("%w: class=%q title=%q", ErrWindowNotFound, class, title)
	}

	var info windowInfo
	info.Size = uint32(unsafe.Sizeof(info))
	ret, _, callErr := procGetWindowInfo.Call(hwnd, uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return Rect{}, fmt.Errorf("%w: %v", ErrWindowInfoUnavailable, callErr)
	}

	return Rect{
		Left:   int(info.Window.Left),
		Top:    int(info.Window.Top),
		Right:  int(info.Window.Right),
		Bottom: int(info.Window.Bottom),
	}, nil
}

// An empty class or title matches any window
func optionalUTF16(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	return windows.UTF16PtrFromString(s)
}
