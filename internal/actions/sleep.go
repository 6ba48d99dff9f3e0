package actions

import (
	"context"
	"fmt"
	"time"
)

// Sleep waits without sending input
type Sleep struct {
	Label    string
	Duration time.Duration
}

func (a *Sleep) Validate(ab *ActionBuilder) error {
	if a.Duration <= 0 {
		return fmt.Errorf("duration (%v) must be greater than 0", a.Duration)
	}
	return nil
}

func (a *Sleep) Build(ab *ActionBuilder) *ActionBuilder {
	name := a.Label
	if name == "" {
		name = fmt.Sprintf("Wait %v", a.Duration)
	}
	step := Step{
		name: name,
		execute: func(ctx context.Context, rt Runtime) error {
			return rt.Sleep(ctx, a.Duration)
		},
	}
	if err := a.Validate(ab); err != nil {
		step.issue = err
	}
	ab.steps = append(ab.steps, step)
	return ab
}
