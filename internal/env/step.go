package env

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
	"jordanella.com/kanjuden-gym/internal/window"
)

// Reset starts a new episode and returns a zero observation of the
// canonical shape. After a terminal episode the recovery sequence, when
// configured, is played first.
func (e *Env) Reset(ctx context.Context) (cv.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateUninitialized {
		return cv.Frame{}, ErrNotReady
	}

	if e.lastTerminal && e.sequences.Recovery != nil && e.sequences.Recovery.Len() > 0 {
		e.logger.Info("Playing recovery sequence")
		if err := e.sequences.Recovery.Execute(ctx, e.runtime()); err != nil {
			return cv.Frame{}, fmt.Errorf("recovery sequence failed: %w", err)
		}
	}

	e.endEpisode()
	e.beginEpisode()
	e.state = StateReady

	return cv.Zeros(e.vision.Shape())
}

// Step plays one action and observes its outcome. Unknown actions press
// nothing but still advance time and observe. When the failure screen is
// detected the terminal key is tapped and the cooldown runs before return;
// cancelling ctx cuts the cooldown short and returns ctx's error together
// with the observed result.
func (e *Env) Step(ctx context.Context, action input.Action) (StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateUninitialized:
		return StepResult{}, ErrNotReady
	case StateTerminal:
		return StepResult{}, ErrEpisodeDone
	}
	if !e.episodeOpen {
		e.beginEpisode()
	}
	e.state = StateStepping

	if err := e.act(ctx, action); err != nil {
		return StepResult{}, err
	}

	if e.cfg.RecheckWindow {
		if err := window.Validate(e.locator, e.cfg.AppClassName, e.cfg.AppWindowName, e.vision.Rect()); err != nil {
			e.reporter.ReportError(logging.ErrorCategoryWindow, logging.ErrorSeverityHigh, "env", "window",
				"Game window changed", err)
			return StepResult{}, err
		}
	}

	frame, err := e.vision.Observe()
	if err != nil {
		e.reporter.ReportError(logging.ErrorCategoryCapture, logging.ErrorSeverityHigh, "env", "capture",
			"Failed to capture observation", err)
		return StepResult{}, err
	}
	e.snapshot(frame)

	det := e.detector.Detect(frame)
	e.steps++
	e.totalReward += det.Reward

	// Empty unless something was detected
	info := map[string]interface{}{}
	if det.Detected() {
		info["event"] = string(det.Event)
		info["template"] = det.Template
		info["score"] = det.Score
		info["step"] = e.steps
		e.publish(events.NewRewardDetectedEvent(e.episodeID, e.steps, string(det.Event), det.Template,
			det.Score, det.Reward, det.Terminal))
		e.logger.InfoWithContext("Reward detected", map[string]interface{}{
			"event":    string(det.Event),
			"template": det.Template,
			"score":    det.Score,
			"reward":   det.Reward,
		})
	}
	e.publish(events.NewStepCompletedEvent(e.episodeID, e.steps, int(action), det.Reward, det.Terminal))

	result := StepResult{
		Observation: frame,
		Reward:      det.Reward,
		Done:        det.Terminal,
		Info:        info,
	}

	if !det.Terminal {
		return result, nil
	}

	e.state = StateTerminal
	e.lastTerminal = true
	e.endEpisode()

	if err := input.Tap(ctx, e.driver, e.sleep, e.terminalKey, e.timing.Hold, 0); err != nil {
		return result, fmt.Errorf("terminal key: %w", err)
	}
	e.logger.DebugWithContext("Waiting for failure screen to settle", map[string]interface{}{
		"cooldown": e.timing.Cooldown.String(),
	})
	if err := e.sleep(ctx, e.timing.Cooldown); err != nil {
		return result, err
	}
	return result, nil
}

// act presses the action's keys for the hold period. Keys are released
// even when the wait is cancelled.
func (e *Env) act(ctx context.Context, action input.Action) error {
	if err := e.sleep(ctx, e.timing.PreAction); err != nil {
		return err
	}
	if err := input.Press(e.driver, action); err != nil {
		e.reporter.ReportError(logging.ErrorCategoryInput, logging.ErrorSeverityHigh, "env", "input",
			"Failed to press keys", err)
		return err
	}

	holdErr := e.sleep(ctx, e.timing.Hold)
	if err := input.Release(e.driver, action); err != nil {
		e.reporter.ReportError(logging.ErrorCategoryInput, logging.ErrorSeverityHigh, "env", "input",
			"Failed to release keys", err)
		return err
	}
	if holdErr != nil {
		return holdErr
	}
	return e.sleep(ctx, e.timing.PostAction)
}

// snapshot overwrites the debug image; failures never abort the step
func (e *Env) snapshot(frame cv.Frame) {
	if e.cfg.SnapshotPath == "" {
		return
	}
	if err := cv.SavePNG(frame, e.cfg.SnapshotPath); err != nil {
		e.reporter.ReportErrorWithContext(logging.ErrorCategorySnapshot, logging.ErrorSeverityMedium, "env", "snapshot",
			"Failed to write debug snapshot", err, map[string]interface{}{"path": e.cfg.SnapshotPath})
	}
}

func (e *Env) beginEpisode() {
	if e.episodeID != "" {
		e.episodeIndex++
	}
	e.episodeID = uuid.NewString()
	e.steps = 0
	e.totalReward = 0
	e.lastTerminal = false
	e.episodeOpen = true
	e.publish(events.NewEpisodeStartedEvent(e.runID, e.episodeID, e.episodeIndex))
}

// endEpisode publishes the end of the open episode once
func (e *Env) endEpisode() {
	if !e.episodeOpen {
		return
	}
	e.publish(events.NewEpisodeEndedEvent(e.episodeID, e.steps, e.totalReward, e.lastTerminal))
	e.episodeOpen = false
}
