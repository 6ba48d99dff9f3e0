package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/kanjuden-gym/internal/events"
)

// EventLogger subscribes to the event bus and appends every event to a log file
type EventLogger struct {
	logger          *Logger
	eventBus        events.EventBus
	subscriptionIDs []events.SubscriptionID
	logFile         *os.File
	logPath         string
}

// NewEventLogger creates a new event logger writing to logDir/events_<timestamp>.log
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := NewLogger("EventLogger").SetOutput(logFile).SetMinLevel(LogLevelDebug)

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
		logFile:  logFile,
		logPath:  logPath,
	}

	el.subscriptionIDs = eventBus.SubscribeAll(el.handleEvent)
	return el, nil
}

// Path returns the file the events are written to
func (el *EventLogger) Path() string {
	return el.logPath
}

func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	if event.Type == events.EventTypeError {
		el.logger.WarnWithContext(string(event.Type), context)
		return
	}
	el.logger.InfoWithContext(string(event.Type), context)
}

// Close unsubscribes from the bus and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptionIDs {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptionIDs = nil

	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
