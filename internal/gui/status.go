package gui

import (
	"fmt"
	"sync"

	"jordanella.com/kanjuden-gym/internal/events"
)

// Status is the episode summary shown under the rendered frame
type Status struct {
	Episode       int
	Steps         int
	TotalReward   float64
	LastEvent     string
	LastTemplate  string
	LastScore     float64
	LastError     string
	EpisodesEnded int
}

// Apply folds a bus event into the summary
func (s *Status) Apply(e events.Event) {
	switch e.Type {
	case events.EventTypeEpisodeStarted:
		if idx, ok := e.Data["index"].(int); ok {
			s.Episode = idx
		}
		s.Steps = 0
		s.TotalReward = 0
		s.LastEvent = ""
		s.LastTemplate = ""
		s.LastScore = 0

	case events.EventTypeStepCompleted:
		if step, ok := e.Data["step"].(int); ok {
			s.Steps = step
		}
		if r, ok := e.Data["reward"].(float64); ok {
			s.TotalReward += r
		}

	case events.EventTypeRewardDetected:
		s.LastEvent, _ = e.Data["event"].(string)
		s.LastTemplate, _ = e.Data["template"].(string)
		s.LastScore, _ = e.Data["score"].(float64)

	case events.EventTypeEpisodeEnded:
		s.EpisodesEnded++

	case events.EventTypeError:
		s.LastError, _ = e.Data["error"].(string)
	}
}

// Lines renders the summary as label text
func (s Status) Lines() []string {
	lines := []string{
		fmt.Sprintf("Episode %d  step %d", s.Episode, s.Steps),
		fmt.Sprintf("Reward %.1f  (%d episodes finished)", s.TotalReward, s.EpisodesEnded),
	}
	if s.LastEvent != "" {
		lines = append(lines, fmt.Sprintf("Last: %s via %s (%.3f)", s.LastEvent, s.LastTemplate, s.LastScore))
	}
	if s.LastError != "" {
		lines = append(lines, "Error: "+s.LastError)
	}
	return lines
}

// StatusTracker keeps a Status current from the event bus
type StatusTracker struct {
	mu              sync.Mutex
	status          Status
	onChange        func(Status)
	bus             events.EventBus
	subscriptionIDs []events.SubscriptionID
}

// NewStatusTracker subscribes to all event types; onChange may be nil
func NewStatusTracker(bus events.EventBus, onChange func(Status)) *StatusTracker {
	st := &StatusTracker{bus: bus, onChange: onChange}
	for _, eventType := range events.AllTypes {
		st.subscriptionIDs = append(st.subscriptionIDs, bus.Subscribe(eventType, st.handle))
	}
	return st
}

func (st *StatusTracker) handle(e events.Event) {
	st.mu.Lock()
	st.status.Apply(e)
	snapshot := st.status
	onChange := st.onChange
	st.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

// Status returns the current summary
func (st *StatusTracker) Status() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status
}

// Close unsubscribes from the bus
func (st *StatusTracker) Close() {
	for _, id := range st.subscriptionIDs {
		st.bus.Unsubscribe(id)
	}
	st.subscriptionIDs = nil
}
