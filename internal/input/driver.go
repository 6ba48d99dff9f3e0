package input

import (
	"context"
	"errors"
	"time"

	"jordanella.com/kanjuden-gym/internal/logging"
)

// ErrUnsupportedPlatform is returned by host integrations on non-Windows builds
var ErrUnsupportedPlatform = errors.New("input: synthetic keyboard input requires windows")

// Driver delivers key transitions to the host. Implementations do not verify
// that the target application received them.
type Driver interface {
	Press(keys ...ScanCode) error
	Release(keys ...ScanCode) error
}

var logger = logging.NewLogger("Input")

// Press holds down every key of action a. Unknown actions are a no-op.
func Press(d Driver, a Action) error {
	keys, ok := KeysFor(a)
	if !ok {
		logger.DebugWithContext("Ignoring unknown action", map[string]interface{}{"action": int(a)})
		return nil
	}
	return d.Press(keys...)
}

// Release lets go of every key of action a. Unknown actions are a no-op.
func Release(d Driver, a Action) error {
	keys, ok := KeysFor(a)
	if !ok {
		return nil
	}
	return d.Release(keys...)
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Default tap timing used by menu navigation
const (
	DefaultTapHold  = 4 * time.Second / FramesPerSecond
	DefaultTapAfter = 2 * time.Second
)

// Tap presses key, holds it for hold, releases it, then waits after
func Tap(ctx context.Context, d Driver, sleep Sleeper, key ScanCode, hold, after time.Duration) error {
	if err := d.Press(key); err != nil {
		return err
	}
	if err := sleep(ctx, hold); err != nil {
		// Never leave the key stuck down
		_ = d.Release(key)
		return err
	}
	if err := d.Release(key); err != nil {
		return err
	}
	return sleep(ctx, after)
}
