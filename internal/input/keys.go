// Package input encodes discrete agent actions as keyboard scan codes and
// delivers them to the host through a Driver.
package input

import (
	"fmt"
	"strings"
	"time"
)

// ScanCode is a hardware keyboard scan code (set 1)
type ScanCode uint16

const (
	ScanEsc    ScanCode = 0x01
	ScanLShift ScanCode = 0x2A
	ScanZ      ScanCode = 0x2C
	ScanUp     ScanCode = 0x48
	ScanLeft   ScanCode = 0x4B
	ScanRight  ScanCode = 0x4D
	ScanDown   ScanCode = 0x50
)

var scanNames = map[ScanCode]string{
	ScanEsc:    "ESC",
	ScanLShift: "LSHIFT",
	ScanZ:      "Z",
	ScanUp:     "UP",
	ScanLeft:   "LEFT",
	ScanRight:  "RIGHT",
	ScanDown:   "DOWN",
}

func (s ScanCode) String() string {
	if name, ok := scanNames[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint16(s))
}

// ParseScanCode resolves a key name ("Z", "right", "lshift") used in config files
func ParseScanCode(name string) (ScanCode, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "SHIFT" {
		upper = "LSHIFT"
	}
	for code, n := range scanNames {
		if n == upper {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// FramesPerSecond is the game's fixed update rate
const FramesPerSecond = 60

// Frames converts a frame count into wall-clock time
func Frames(n int) time.Duration {
	return time.Duration(n) * time.Second / FramesPerSecond
}
