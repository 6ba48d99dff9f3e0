package env

import (
	"context"
	"fmt"
)

// Render shows the last observation. Only RenderModeHuman is supported and
// it blocks until the viewer is dismissed.
func (e *Env) Render(ctx context.Context, mode string) error {
	e.mu.Lock()
	frame, ok := e.vision.LastFrame()
	viewer := e.viewer
	e.mu.Unlock()

	if !ok {
		return ErrNoImageSource
	}
	if mode != RenderModeHuman {
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	if viewer == nil {
		return ErrNoViewer
	}
	return viewer.Show(ctx, frame)
}
