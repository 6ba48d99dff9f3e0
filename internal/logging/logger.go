package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// LogLevel is the config-facing level name. It maps onto charm log levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLevel accepts the log_level setting case-insensitively. Unknown
// values fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) charm() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

var (
	defaultLevel   = LogLevelInfo
	defaultLevelMu sync.RWMutex
)

// SetDefaultLevel sets the minimum level for loggers created afterwards
func SetDefaultLevel(level LogLevel) {
	defaultLevelMu.Lock()
	defer defaultLevelMu.Unlock()
	defaultLevel = level
}

// Logger prefixes every line with its component. It is safe for use from
// the env goroutine, the bus dispatcher and the fyne thread at once.
type Logger struct {
	component string
	minLevel  LogLevel
	out       io.Writer
	base      *log.Logger
	mu        sync.Mutex
}

// NewLogger writes to stderr at the level set by SetDefaultLevel.
func NewLogger(component string) *Logger {
	defaultLevelMu.RLock()
	level := defaultLevel
	defaultLevelMu.RUnlock()

	l := &Logger{
		component: component,
		minLevel:  level,
		out:       os.Stderr,
	}
	l.rebuild()
	return l
}

// rebuild recreates the backing logger so its renderer matches the current
// output. Caller must hold l.mu or own l exclusively.
func (l *Logger) rebuild() {
	l.base = log.NewWithOptions(l.out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Prefix:          l.component,
		Level:           l.minLevel.charm(),
	})
}

func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	l.base.SetLevel(level.charm())
	return l
}

func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.rebuild()
	return l
}

func (l *Logger) log(level LogLevel, message string, err error, context map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keyvals := make([]interface{}, 0, 2*len(context)+2)
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		keyvals = append(keyvals, k, context[k])
	}

	l.base.Log(level.charm(), message, keyvals...)
}

func (l *Logger) Info(message string) { l.log(LogLevelInfo, message, nil, nil) }

func (l *Logger) Error(message string, err error) { l.log(LogLevelError, message, err, nil) }

// The WithContext variants append the map as sorted key/value pairs.

func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelDebug, message, nil, context)
}

func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelInfo, message, nil, context)
}

func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelWarn, message, nil, context)
}

func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(LogLevelError, message, err, context)
}
