package actions

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"jordanella.com/kanjuden-gym/internal/input"
)

// YAMLStep is one entry of a scenario list. Either Wait or Key is set.
type YAMLStep struct {
	Label      string `yaml:"label,omitempty"`
	Key        string `yaml:"key,omitempty"`
	HoldFrames *int   `yaml:"hold_frames,omitempty"`
	After      string `yaml:"after,omitempty"`
	Wait       string `yaml:"wait,omitempty"`
}

// Scenario holds the scripted sequences of a scenario file
type Scenario struct {
	Startup  []YAMLStep `yaml:"startup"`
	Recovery []YAMLStep `yaml:"recovery"`
}

// ToActionStep converts the YAML form into a declarative step
func (s YAMLStep) ToActionStep() (ActionStep, error) {
	if s.Wait != "" {
		if s.Key != "" {
			return nil, fmt.Errorf("step %q: wait and key are mutually exclusive", s.Label)
		}
		d, err := time.ParseDuration(s.Wait)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid wait: %w", s.Label, err)
		}
		return &Sleep{Label: s.Label, Duration: d}, nil
	}

	if s.Key == "" {
		return nil, fmt.Errorf("step %q: either key or wait is required", s.Label)
	}
	key, err := input.ParseScanCode(s.Key)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", s.Label, err)
	}

	hold := input.DefaultTapHold
	if s.HoldFrames != nil {
		hold = input.Frames(*s.HoldFrames)
	}
	after := input.DefaultTapAfter
	if s.After != "" {
		if after, err = time.ParseDuration(s.After); err != nil {
			return nil, fmt.Errorf("step %q: invalid after: %w", s.Label, err)
		}
	}

	return &SendKey{Label: s.Label, Key: key, Hold: hold, After: after}, nil
}

// ParseScenario reads startup and recovery lists from YAML. Other top-level
// keys are ignored so the same file can carry reward rules.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario YAML: %w", err)
	}
	return &sc, nil
}

// BuildSequence validates and builds a named sequence from YAML steps
func BuildSequence(name string, steps []YAMLStep) (*ActionBuilder, error) {
	ab := NewActionBuilder(name)
	for i, s := range steps {
		step, err := s.ToActionStep()
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", name, i+1, err)
		}
		if err := step.Validate(ab); err != nil {
			return nil, fmt.Errorf("%s step %d validation failed: %w", name, i+1, err)
		}
		ab = step.Build(ab)
	}
	return ab, nil
}

// DefaultStartupWait gives the game time to reach the title screen
const DefaultStartupWait = 10 * time.Second

// DefaultStartup navigates from the title screen into a fresh game:
// mode, rank NORMAL, player REIMU, then declines resuming saved progress.
func DefaultStartup() *ActionBuilder {
	return NewActionBuilder("startup").
		Wait("Wait for title screen", DefaultStartupWait).
		Tap("Title -> Mode Select", input.ScanZ).
		Tap("Mode Select -> Rank Select (NORMAL)", input.ScanZ).
		Tap("Rank Select -> Player Select (REIMU)", input.ScanZ).
		Tap("Player Select -> Game Start", input.ScanZ).
		Tap("Resume prompt -> No", input.ScanRight).
		Tap("Confirm new game", input.ScanZ)
}
