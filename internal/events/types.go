package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Environment lifecycle events
	EventTypeEnvReady EventType = "env.ready"

	// Episode events
	EventTypeEpisodeStarted EventType = "episode.started"
	EventTypeEpisodeEnded   EventType = "episode.ended"

	// Step events
	EventTypeRewardDetected EventType = "reward.detected"
	EventTypeStepCompleted  EventType = "step.completed"

	// Error events
	EventTypeError EventType = "error"
)

// AllTypes lists every event type, in the order they are usually emitted
var AllTypes = []EventType{
	EventTypeEnvReady,
	EventTypeEpisodeStarted,
	EventTypeStepCompleted,
	EventTypeRewardDetected,
	EventTypeEpisodeEnded,
	EventTypeError,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "env", "bridge")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// SubscribeAll registers a handler for every known event type
	SubscribeAll(handler EventHandler) []SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish queues an event (blocking until queued)
	Publish(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// NewEnvReadyEvent is emitted once the startup sequence has finished
func NewEnvReadyEvent(runID string, left, top, right, bottom int, shape []int) Event {
	return Event{
		Type:      EventTypeEnvReady,
		Source:    "env",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":            runID,
			"rect":              []int{left, top, right, bottom},
			"observation_shape": shape,
		},
	}
}

// NewEpisodeStartedEvent creates an episode started event
func NewEpisodeStartedEvent(runID, episodeID string, index int) Event {
	return Event{
		Type:      EventTypeEpisodeStarted,
		Source:    "env",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":     runID,
			"episode_id": episodeID,
			"index":      index,
		},
	}
}

// NewEpisodeEndedEvent creates an episode ended event
func NewEpisodeEndedEvent(episodeID string, steps int, totalReward float64, terminal bool) Event {
	return Event{
		Type:      EventTypeEpisodeEnded,
		Source:    "env",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"episode_id":   episodeID,
			"steps":        steps,
			"total_reward": totalReward,
			"terminal":     terminal,
		},
	}
}

// NewStepCompletedEvent creates a step completed event
func NewStepCompletedEvent(episodeID string, step, action int, reward float64, done bool) Event {
	return Event{
		Type:      EventTypeStepCompleted,
		Source:    "env",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"episode_id": episodeID,
			"step":       step,
			"action":     action,
			"reward":     reward,
			"done":       done,
		},
	}
}

// NewRewardDetectedEvent creates a reward detected event
func NewRewardDetectedEvent(episodeID string, step int, event, template string, score, reward float64, terminal bool) Event {
	return Event{
		Type:      EventTypeRewardDetected,
		Source:    "reward",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"episode_id": episodeID,
			"step":       step,
			"event":      event,
			"template":   template,
			"score":      score,
			"reward":     reward,
			"terminal":   terminal,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}

	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
