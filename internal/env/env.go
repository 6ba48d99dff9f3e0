// Package env drives the game window as a reinforcement learning
// environment: reset, step and render over a fixed action space.
package env

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"jordanella.com/kanjuden-gym/internal/actions"
	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
	"jordanella.com/kanjuden-gym/internal/reward"
	"jordanella.com/kanjuden-gym/internal/window"
)

var (
	ErrNotReady        = errors.New("environment not ready")
	ErrEpisodeDone     = errors.New("episode is over, reset required")
	ErrUnsupportedMode = errors.New("unsupported mode")
	ErrNoImageSource   = errors.New("no image source")
	ErrNoViewer        = errors.New("no viewer configured")
)

// RenderModeHuman is the only supported render mode
const RenderModeHuman = "human"

// State is the lifecycle position of the environment
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateStepping
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateStepping:
		return "stepping"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Viewer shows a frame and blocks until the user dismisses it
type Viewer interface {
	Show(ctx context.Context, frame cv.Frame) error
}

// Deps are the host capabilities the environment drives. Locator, Capturer,
// Driver and Templates are required; the rest have defaults.
type Deps struct {
	Locator   window.Locator
	Capturer  cv.Capturer
	Driver    input.Driver
	Templates reward.TemplateSource

	Sleeper   input.Sleeper      // nil sleeps in real time
	Rules     reward.Rules       // nil uses reward.DefaultRules
	Sequences *actions.Sequences // nil uses the default startup and no recovery
	Bus       events.EventBus
	Viewer    Viewer
	Reporter  *logging.ErrorReporter
}

// StepResult is what a step hands back to the trainer
type StepResult struct {
	Observation cv.Frame
	Reward      float64
	Done        bool
	Info        map[string]interface{}
}

// Env is a single-actor environment bound to one game window
type Env struct {
	mu sync.Mutex

	cfg         *config.Config
	timing      config.Timing
	terminalKey input.ScanCode

	driver    input.Driver
	sleep     input.Sleeper
	locator   window.Locator
	vision    *cv.Service
	detector  *reward.Detector
	sequences *actions.Sequences
	bus       events.EventBus
	viewer    Viewer
	reporter  *logging.ErrorReporter
	logger    *logging.Logger

	state        State
	runID        string
	episodeID    string
	episodeIndex int
	episodeOpen  bool
	steps        int
	totalReward  float64
	lastTerminal bool
}

// New locates the window, validates the observation pipeline against it
// and plays the startup sequence. Window errors are returned unretried.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Env, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Locator == nil || deps.Capturer == nil || deps.Driver == nil || deps.Templates == nil {
		return nil, fmt.Errorf("locator, capturer, driver and templates are required")
	}

	terminalKey, err := cfg.TerminalScanCode()
	if err != nil {
		return nil, err
	}

	rules := deps.Rules
	if rules == nil {
		rules = reward.DefaultRules()
	}
	detector, err := reward.NewDetector(rules, deps.Templates)
	if err != nil {
		return nil, fmt.Errorf("invalid reward rules: %w", err)
	}
	if catalog, ok := deps.Templates.(reward.TemplateCatalog); ok {
		if err := detector.Rules().CheckTemplates(catalog); err != nil {
			return nil, err
		}
	}

	sequences := deps.Sequences
	if sequences == nil {
		sequences = &actions.Sequences{Startup: actions.DefaultStartup()}
	}

	sleep := deps.Sleeper
	if sleep == nil {
		sleep = input.Sleep
	}

	reporter := deps.Reporter
	if reporter == nil {
		reporter = logging.NewErrorReporter(deps.Bus)
	}

	e := &Env{
		cfg:         cfg,
		timing:      cfg.Timing(),
		terminalKey: terminalKey,
		driver:      deps.Driver,
		sleep:       sleep,
		locator:     deps.Locator,
		detector:    detector,
		sequences:   sequences,
		bus:         deps.Bus,
		viewer:      deps.Viewer,
		reporter:    reporter,
		logger:      logging.NewLogger("Env"),
		state:       StateUninitialized,
		runID:       uuid.NewString(),
	}

	rect, err := deps.Locator.Locate(cfg.AppClassName, cfg.AppWindowName)
	if err != nil {
		return nil, fmt.Errorf("failed to locate game window: %w", err)
	}
	e.logger.InfoWithContext("Located game window", map[string]interface{}{
		"rect":  rect.String(),
		"class": cfg.AppClassName,
	})

	e.vision, err = cv.NewService(deps.Capturer, rect, cfg.Preprocessor())
	if err != nil {
		return nil, err
	}

	// No feedback from the game: the menus are assumed to follow the script
	if seq := sequences.Startup; seq != nil {
		e.logger.InfoWithContext("Playing startup sequence", map[string]interface{}{
			"sequence": seq.Name(),
			"steps":    seq.Len(),
			"labels":   seq.StepNames(),
		})
		if err := seq.Execute(ctx, e.runtime()); err != nil {
			return nil, fmt.Errorf("startup sequence failed: %w", err)
		}
	}

	e.state = StateReady
	shape := e.vision.Shape()
	e.publish(events.NewEnvReadyEvent(e.runID, rect.Left, rect.Top, rect.Right, rect.Bottom, shape))
	e.logger.InfoWithContext("Environment ready", map[string]interface{}{
		"run_id":            e.runID,
		"observation_shape": fmt.Sprint(shape),
		"actions":           input.ActionSpaceSize(),
	})

	return e, nil
}

// ActionSpace is the number of discrete actions (ids 0..n-1)
func (e *Env) ActionSpace() int {
	return input.ActionSpaceSize()
}

// ObservationShape is the canonical [height, width, channels] of every observation
func (e *Env) ObservationShape() []int {
	return e.vision.Shape()
}

// State returns the lifecycle state
func (e *Env) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RunID identifies this environment session
func (e *Env) RunID() string {
	return e.runID
}

// ErrorStats counts the errors reported so far by severity and category
func (e *Env) ErrorStats() map[string]int {
	return e.reporter.GetErrorStats()
}

// Close ends the open episode, if any
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endEpisode()
	return nil
}

func (e *Env) runtime() actions.Runtime {
	return actions.StaticRuntime{Driver: e.driver, Sleeper: e.sleep}
}

func (e *Env) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}
