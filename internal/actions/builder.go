// Package actions builds and runs scripted input sequences such as the
// menu navigation performed before the first episode.
package actions

import (
	"context"
	"fmt"
	"time"

	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// ActionBuilder type and core methods. Sequences only send input and wait;
// nothing checks that the game reached the expected screen.
type ActionBuilder struct {
	name   string
	steps  []Step
	logger *logging.Logger
}

// Step is one executable unit of a sequence
type Step struct {
	name    string
	execute func(ctx context.Context, rt Runtime) error
	issue   error
}

// NewActionBuilder creates an empty sequence
func NewActionBuilder(name string) *ActionBuilder {
	return &ActionBuilder{
		name:   name,
		logger: logging.NewLogger("Actions"),
	}
}

// Name returns the sequence name
func (ab *ActionBuilder) Name() string {
	return ab.name
}

// Len returns the number of steps
func (ab *ActionBuilder) Len() int {
	return len(ab.steps)
}

// StepNames lists step labels in order
func (ab *ActionBuilder) StepNames() []string {
	names := make([]string, len(ab.steps))
	for i, s := range ab.steps {
		names[i] = s.name
	}
	return names
}

// Step constructors

// Wait pauses for d
func (ab *ActionBuilder) Wait(label string, d time.Duration) *ActionBuilder {
	return (&Sleep{Label: label, Duration: d}).Build(ab)
}

// Tap presses and releases key with the default menu timing
func (ab *ActionBuilder) Tap(label string, key input.ScanCode) *ActionBuilder {
	return ab.TapWith(label, key, input.DefaultTapHold, input.DefaultTapAfter)
}

// TapWith presses key, holds it for hold, releases, then waits after
func (ab *ActionBuilder) TapWith(label string, key input.ScanCode, hold, after time.Duration) *ActionBuilder {
	return (&SendKey{Label: label, Key: key, Hold: hold, After: after}).Build(ab)
}

// Add validates and appends declarative steps. A validation failure is
// recorded on the step and reported by Execute.
func (ab *ActionBuilder) Add(steps ...ActionStep) *ActionBuilder {
	for _, s := range steps {
		if err := s.Validate(ab); err != nil {
			ab.steps = append(ab.steps, Step{name: fmt.Sprintf("%T", s), issue: err})
			continue
		}
		ab = s.Build(ab)
	}
	return ab
}

// Execution

// Execute runs every step in order, stopping at the first error
func (ab *ActionBuilder) Execute(ctx context.Context, rt Runtime) error {
	for i, step := range ab.steps {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if step.issue != nil {
			return fmt.Errorf("build configuration error for step '%s': %w", step.name, step.issue)
		}

		ab.logger.InfoWithContext(step.name, map[string]interface{}{
			"sequence": ab.name,
			"step":     i + 1,
			"of":       len(ab.steps),
		})
		if err := step.execute(ctx, rt); err != nil {
			return fmt.Errorf("%s step %d (%s): %w", ab.name, i+1, step.name, err)
		}
	}
	return nil
}
