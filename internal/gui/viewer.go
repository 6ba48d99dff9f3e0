// Package gui shows captured frames in a native window.
package gui

import (
	"context"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// WindowTitle is the title of the render window
const WindowTitle = "東方紺珠伝 - kanjuden-gym"

// minimum on-screen size, small observations are upscaled
const minViewerSide = 320

// Viewer displays frames in a fyne window. The fyne app must be driven by Run
// on the main goroutine; Show may be called from any other goroutine.
type Viewer struct {
	app     fyne.App
	window  fyne.Window
	image   *canvas.Image
	status  *widget.Label
	tracker *StatusTracker
	logger  *logging.Logger

	mu     sync.Mutex
	closed chan struct{}
}

// NewViewer builds the (hidden) render window
func NewViewer(a fyne.App) *Viewer {
	a.Settings().SetTheme(&ViewerTheme{})

	v := &Viewer{
		app:    a,
		window: a.NewWindow(WindowTitle),
		logger: logging.NewLogger("Viewer"),
	}

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScalePixels
	v.status = widget.NewLabel("")

	v.window.SetContent(container.NewBorder(nil, v.status, nil, nil, v.image))
	// Closing only dismisses the frame so the next Show can reuse the window
	v.window.SetCloseIntercept(v.dismiss)

	return v
}

// Attach opens the window with the episode summary from bus under the frame
func (v *Viewer) Attach(bus events.EventBus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tracker != nil {
		v.tracker.Close()
	}
	v.tracker = NewStatusTracker(bus, func(s Status) {
		text := strings.Join(s.Lines(), "\n")
		fyne.Do(func() { v.status.SetText(text) })
	})
	fyne.Do(v.window.Show)
}

// Run drives the fyne event loop until Quit
func (v *Viewer) Run() {
	v.app.Run()
}

// Quit stops the event loop and releases any blocked Show
func (v *Viewer) Quit() {
	v.mu.Lock()
	if v.tracker != nil {
		v.tracker.Close()
		v.tracker = nil
	}
	v.mu.Unlock()
	v.dismiss()
	fyne.Do(v.app.Quit)
}

// Show draws frame and blocks until the user closes the window or ctx ends
func (v *Viewer) Show(ctx context.Context, frame cv.Frame) error {
	done := make(chan struct{})
	v.mu.Lock()
	if v.closed != nil {
		close(v.closed)
	}
	v.closed = done
	v.mu.Unlock()

	img := frame.Image()
	w, h := viewerSize(frame.Width, frame.Height)

	v.logger.DebugWithContext("Showing frame", map[string]interface{}{
		"width":  frame.Width,
		"height": frame.Height,
	})

	fyne.Do(func() {
		v.image.Image = img
		v.image.SetMinSize(fyne.NewSize(w, h))
		v.image.Refresh()
		v.window.Resize(fyne.NewSize(w, h))
		v.window.Show()
		v.window.RequestFocus()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		v.dismiss()
		return ctx.Err()
	}
}

func (v *Viewer) dismiss() {
	v.mu.Lock()
	if v.closed != nil {
		close(v.closed)
		v.closed = nil
	}
	v.mu.Unlock()

	fyne.Do(v.window.Hide)
}

func viewerSize(width, height int) (float32, float32) {
	w, h := float32(width), float32(height)
	short := w
	if h < short {
		short = h
	}
	if short > 0 && short < minViewerSide {
		scale := float32(minViewerSide) / short
		w, h = w*scale, h*scale
	}
	return w, h
}
