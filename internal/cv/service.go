package cv

import (
	"fmt"
	"sync"

	"jordanella.com/kanjuden-gym/internal/window"
)

// Service captures the cached window rectangle and turns it into observations
type Service struct {
	capturer     Capturer
	rect         window.Rect
	preprocessor Preprocessor
	shape        []int

	lastFrame Frame

	mu sync.RWMutex
}

// NewService validates the preprocessor against the window size once
func NewService(capturer Capturer, rect window.Rect, p Preprocessor) (*Service, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("window rectangle %s is empty", rect)
	}
	shape, err := p.OutputShape(rect.Width(), rect.Height())
	if err != nil {
		return nil, err
	}
	return &Service{
		capturer:     capturer,
		rect:         rect,
		preprocessor: p,
		shape:        shape,
	}, nil
}

// Shape returns the canonical observation shape
func (s *Service) Shape() []int {
	out := make([]int, len(s.shape))
	copy(out, s.shape)
	return out
}

// Rect returns the rectangle being captured
func (s *Service) Rect() window.Rect {
	return s.rect
}

// Observe captures the screen and preprocesses it
func (s *Service) Observe() (Frame, error) {
	raw, err := s.capturer.CaptureRect(s.rect)
	if err != nil {
		return Frame{}, fmt.Errorf("capture %s: %w", s.rect, err)
	}
	if b := raw.Bounds(); b.Dx() != s.rect.Width() || b.Dy() != s.rect.Height() {
		return Frame{}, fmt.Errorf("capture returned %dx%d, expected %dx%d",
			b.Dx(), b.Dy(), s.rect.Width(), s.rect.Height())
	}

	frame, err := s.preprocessor.Process(raw)
	if err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	s.lastFrame = frame
	s.mu.Unlock()

	return frame, nil
}

// LastFrame returns the most recent observation, if any
func (s *Service) LastFrame() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFrame, !s.lastFrame.Empty()
}
