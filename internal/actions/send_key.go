package actions

import (
	"context"
	"fmt"
	"time"

	"jordanella.com/kanjuden-gym/internal/input"
)

// SendKey taps a single key
type SendKey struct {
	Label string
	Key   input.ScanCode
	Hold  time.Duration
	After time.Duration
}

func (a *SendKey) Validate(ab *ActionBuilder) error {
	if a.Key == 0 {
		return fmt.Errorf("key is required")
	}
	if a.Hold < 0 || a.After < 0 {
		return fmt.Errorf("hold (%v) and after (%v) cannot be negative", a.Hold, a.After)
	}
	return nil
}

func (a *SendKey) Build(ab *ActionBuilder) *ActionBuilder {
	name := a.Label
	if name == "" {
		name = "Tap " + a.Key.String()
	}
	step := Step{
		name: name,
		execute: func(ctx context.Context, rt Runtime) error {
			return input.Tap(ctx, rt.Input(), rt.Sleep, a.Key, a.Hold, a.After)
		},
	}
	if err := a.Validate(ab); err != nil {
		step.issue = err
	}
	ab.steps = append(ab.steps, step)
	return ab
}
