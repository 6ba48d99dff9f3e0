package database

import (
	"fmt"
	"sync"

	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// Recorder persists environment events published on the bus
type Recorder struct {
	db              *DB
	bus             events.EventBus
	logger          *logging.Logger
	subscriptionIDs []events.SubscriptionID

	mu    sync.Mutex
	runID string
}

// NewRecorder subscribes a recorder to every event type it stores
func NewRecorder(db *DB, bus events.EventBus) *Recorder {
	r := &Recorder{
		db:     db,
		bus:    bus,
		logger: logging.NewLogger("Recorder"),
	}

	handlers := map[events.EventType]events.EventHandler{
		events.EventTypeEnvReady:       r.onEnvReady,
		events.EventTypeEpisodeStarted: r.onEpisodeStarted,
		events.EventTypeRewardDetected: r.onRewardDetected,
		events.EventTypeEpisodeEnded:   r.onEpisodeEnded,
		events.EventTypeError:          r.onError,
	}
	for _, eventType := range events.AllTypes {
		if h, ok := handlers[eventType]; ok {
			r.subscriptionIDs = append(r.subscriptionIDs, bus.Subscribe(eventType, h))
		}
	}
	return r
}

// RunID returns the run currently being recorded
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Close unsubscribes and marks the current run as ended
func (r *Recorder) Close() error {
	for _, id := range r.subscriptionIDs {
		r.bus.Unsubscribe(id)
	}
	r.subscriptionIDs = nil

	runID := r.RunID()
	if runID == "" {
		return nil
	}
	return r.db.EndRun(runID)
}

func (r *Recorder) onEnvReady(e events.Event) {
	runID := stringField(e, "run_id")
	r.mu.Lock()
	r.runID = runID
	r.mu.Unlock()

	rect := fmt.Sprint(e.Data["rect"])
	shape := fmt.Sprint(e.Data["observation_shape"])
	if err := r.db.StartRun(runID, rect, shape); err != nil {
		r.logger.Error("Failed to record run", err)
	}
}

func (r *Recorder) onEpisodeStarted(e events.Event) {
	err := r.db.StartEpisode(stringField(e, "run_id"), stringField(e, "episode_id"), intField(e, "index"))
	if err != nil {
		r.logger.Error("Failed to record episode start", err)
	}
}

func (r *Recorder) onRewardDetected(e events.Event) {
	_, err := r.db.RecordDetection(Detection{
		EpisodeID:  stringField(e, "episode_id"),
		Step:       intField(e, "step"),
		Event:      stringField(e, "event"),
		Template:   stringField(e, "template"),
		Score:      floatField(e, "score"),
		Reward:     floatField(e, "reward"),
		Terminal:   boolField(e, "terminal"),
		DetectedAt: e.Timestamp,
	})
	if err != nil {
		r.logger.Error("Failed to record detection", err)
	}
}

func (r *Recorder) onEpisodeEnded(e events.Event) {
	err := r.db.EndEpisode(stringField(e, "episode_id"), intField(e, "steps"),
		floatField(e, "total_reward"), boolField(e, "terminal"))
	if err != nil {
		r.logger.Error("Failed to record episode end", err)
	}
}

func (r *Recorder) onError(e events.Event) {
	err := r.db.LogError(r.RunID(), stringField(e, "source"), stringField(e, "component"), stringField(e, "error"))
	if err != nil {
		r.logger.Error("Failed to record error", err)
	}
}

func stringField(e events.Event, key string) string {
	s, _ := e.Data[key].(string)
	return s
}

func intField(e events.Event, key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func floatField(e events.Event, key string) float64 {
	switch v := e.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func boolField(e events.Event, key string) bool {
	b, _ := e.Data[key].(bool)
	return b
}
