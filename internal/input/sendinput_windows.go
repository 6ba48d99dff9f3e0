//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard     = 1
	keyEventFKeyUp    = 0x0002
	keyEventFScanCode = 0x0008
)

// keybdInput mirrors KEYBDINPUT
type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// keyboardInput mirrors INPUT with the keyboard arm of the union. The
// trailing padding brings it to the size of the MOUSEINPUT arm.
type keyboardInput struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// SendInputDriver injects scan-code keystrokes into the foreground window
type SendInputDriver struct{}

// NewSendInputDriver returns the Win32 input driver
func NewSendInputDriver() (*SendInputDriver, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("resolve SendInput: %w", err)
	}
	return &SendInputDriver{}, nil
}

// Press sends a key-down for each key in order
func (d *SendInputDriver) Press(keys ...ScanCode) error {
	return d.send(keys, 0)
}

// Release sends a key-up for each key in order
func (d *SendInputDriver) Release(keys ...ScanCode) error {
	return d.send(keys, keyEventFKeyUp)
}

func (d *SendInputDriver) send(keys []ScanCode, flags uint32) error {
	if len(keys) == 0 {
		return nil
	}

	inputs := make([]keyboardInput, len(keys))
	for i, k := range keys {
		inputs[i] = keyboardInput{
			Type: inputKeyboard,
			Ki: keybdInput{
				Scan:  uint16(k),
				Flags: keyEventFScanCode | flags,
			},
		}
	}

	sent, _, callErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	// Delivery is fire-and-forget; a blocked injection is only worth a log line
	if int(sent) != len(inputs) {
		logger.WarnWithContext("SendInput delivered fewer events than requested", map[string]interface{}{
			"requested": len(inputs),
			"sent":      int(sent),
			"cause":     callErr.Error(),
		})
	}
	return nil
}
