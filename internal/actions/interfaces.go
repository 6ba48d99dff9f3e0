package actions

import (
	"context"
	"time"

	"jordanella.com/kanjuden-gym/internal/input"
)

// Runtime is what steps need from the environment at execution time
type Runtime interface {
	Input() input.Driver
	Sleep(ctx context.Context, d time.Duration) error
}

// ActionStep is a declarative step that validates and appends itself to a builder
type ActionStep interface {
	Validate(ab *ActionBuilder) error
	Build(ab *ActionBuilder) *ActionBuilder
}

// StaticRuntime pairs a driver with a sleeper
type StaticRuntime struct {
	Driver  input.Driver
	Sleeper input.Sleeper
}

// Input returns the driver
func (r StaticRuntime) Input() input.Driver {
	return r.Driver
}

// Sleep waits through the configured sleeper, falling back to real time
func (r StaticRuntime) Sleep(ctx context.Context, d time.Duration) error {
	if r.Sleeper == nil {
		return input.Sleep(ctx, d)
	}
	return r.Sleeper(ctx, d)
}
