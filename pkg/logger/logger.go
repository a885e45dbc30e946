package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/killallgit/oracle/pkg/config"
	"github.com/rs/zerolog"
)

// Logger writes levelled, structured log lines to a file. The terminal is
// owned by the chat view, so nothing is written to stdout.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Init initializes the default logger from the logging configuration
func Init(settings config.LoggingConfig) error {
	l, err := New(settings.Level, settings.LogFile, settings.Persist)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	old := defaultLogger
	defaultLogger = l
	mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// New creates a Logger writing to logFile. Relative paths are placed next to
// the settings file when one is in use. persist appends instead of truncating.
func New(level, logFile string, persist bool) (*Logger, error) {
	logPath := logFile
	if !filepath.IsAbs(logPath) && config.GetConfigFileUsed() != "" {
		logPath = config.BuildSettingsPath(filepath.Base(logPath))
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if persist {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		zl:   newZerolog(file, level),
		file: file,
	}, nil
}

// NewWithWriter creates a Logger that writes to w; used by tests.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{zl: newZerolog(w, level)}
}

func newZerolog(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a string level into zerolog.Level with a safe default
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// ComponentLogger tags every line with a component name and takes
// alternating key/value pairs after the message.
type ComponentLogger struct {
	zl zerolog.Logger
}

// WithComponent returns a logger scoped to component. It is safe to call
// before Init; the result then discards everything.
func WithComponent(component string) *ComponentLogger {
	mu.RLock()
	defer mu.RUnlock()
	if defaultLogger == nil {
		return &ComponentLogger{zl: zerolog.Nop()}
	}
	return defaultLogger.WithComponent(component)
}

func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{zl: l.zl.With().Str("component", component).Logger()}
}

func (c *ComponentLogger) Debug(msg string, keyvals ...interface{}) {
	c.zl.Debug().Fields(keyvals).Msg(msg)
}

func (c *ComponentLogger) Info(msg string, keyvals ...interface{}) {
	c.zl.Info().Fields(keyvals).Msg(msg)
}

func (c *ComponentLogger) Warn(msg string, keyvals ...interface{}) {
	c.zl.Warn().Fields(keyvals).Msg(msg)
}

func (c *ComponentLogger) Error(msg string, keyvals ...interface{}) {
	c.zl.Error().Fields(keyvals).Msg(msg)
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debug(format, args...)
	}
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Info(format, args...)
	}
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warn(format, args...)
	}
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Error(format, args...)
	}
}

// SetOutput redirects the default logger, creating one if needed (useful for testing)
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = NewWithWriter(w, level)
}

// Close closes the default logger
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return nil
	}
	err := defaultLogger.Close()
	defaultLogger = nil
	return err
}
