package logging

import (
	"fmt"
	"sync"
	"time"

	"jordanella.com/kanjuden-gym/internal/events"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	ErrorCategoryWindow   ErrorCategory = "window"
	ErrorCategoryCapture  ErrorCategory = "capture"
	ErrorCategoryInput    ErrorCategory = "input"
	ErrorCategorySnapshot ErrorCategory = "snapshot"
	ErrorCategoryTemplate ErrorCategory = "template"
	ErrorCategoryBridge   ErrorCategory = "bridge"
	ErrorCategoryDatabase ErrorCategory = "database"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity string

const (
	ErrorSeverityLow    ErrorSeverity = "low"
	ErrorSeverityMedium ErrorSeverity = "medium"
	ErrorSeverityHigh   ErrorSeverity = "high"
)

// ErrorReport is one reported failure
type ErrorReport struct {
	Timestamp time.Time
	Category  ErrorCategory
	Severity  ErrorSeverity
	Source    string
	Component string
	Message   string
	Error     error
	Context   map[string]interface{}
}

// ErrorReporter logs failures that do not abort the caller, keeps a bounded
// history and forwards them to the event bus
type ErrorReporter struct {
	logger *Logger
	bus    events.EventBus

	mu         sync.RWMutex
	history    []*ErrorReport
	maxHistory int
}

// NewErrorReporter creates a reporter; bus may be nil
func NewErrorReporter(bus events.EventBus) *ErrorReporter {
	return &ErrorReporter{
		logger:     NewLogger("ErrorReporter"),
		bus:        bus,
		maxHistory: 256,
	}
}

// Report logs, stores and publishes report
func (er *ErrorReporter) Report(report *ErrorReport) {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	er.logError(report)
	er.addToHistory(report)

	if er.bus != nil && report.Error != nil {
		meta := map[string]interface{}{
			"category": string(report.Category),
			"severity": string(report.Severity),
			"message":  report.Message,
		}
		for k, v := range report.Context {
			meta[k] = v
		}
		er.bus.Publish(events.NewErrorEvent(report.Source, report.Component, report.Error, meta))
	}
}

// ReportError reports a failure of component owned by source
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, source, component, message string, err error) {
	er.Report(&ErrorReport{
		Category:  category,
		Severity:  severity,
		Source:    source,
		Component: component,
		Message:   message,
		Error:     err,
	})
}

// ReportErrorWithContext reports a failure with extra fields
func (er *ErrorReporter) ReportErrorWithContext(category ErrorCategory, severity ErrorSeverity, source, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:  category,
		Severity:  severity,
		Source:    source,
		Component: component,
		Message:   message,
		Error:     err,
		Context:   context,
	})
}

func (er *ErrorReporter) logError(report *ErrorReport) {
	context := map[string]interface{}{
		"category":  string(report.Category),
		"component": report.Component,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	case ErrorSeverityMedium:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.WarnWithContext(report.Message, context)
	default:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.InfoWithContext(report.Message, context)
	}
}

func (er *ErrorReporter) addToHistory(report *ErrorReport) {
	er.mu.Lock()
	defer er.mu.Unlock()

	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
}

// GetErrorStats counts reports per severity and category
func (er *ErrorReporter) GetErrorStats() map[string]int {
	er.mu.RLock()
	defer er.mu.RUnlock()

	stats := map[string]int{"total": len(er.history)}
	for _, report := range er.history {
		stats[fmt.Sprintf("severity_%s", report.Severity)]++
		stats[fmt.Sprintf("category_%s", report.Category)]++
	}
	return stats
}

