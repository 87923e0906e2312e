// Package logging provides the structured logger used across fuzmoi.
// Loggers are backed by log/slog handlers; Slog exposes the underlying
// *slog.Logger for libraries that take one directly.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn, error)", s)
	}
}

// Format selects the handler used to encode records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithField returns a new logger with the given field added.
	WithField(key string, value interface{}) Logger

	// WithFields returns a new logger with the given fields added.
	WithFields(fields map[string]interface{}) Logger

	// SetLevel sets the minimum log level.
	SetLevel(level Level)

	// SetOutput sets the output writer.
	SetOutput(w io.Writer)

	// Slog returns the underlying slog logger, including any fields.
	Slog() *slog.Logger
}

var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
)

func init() {
	defaultLogger = New()
}

// Default returns the default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// sink is shared by a logger and every logger derived from it, so that
// SetLevel and SetOutput apply to the whole family.
type sink struct {
	mu     sync.RWMutex
	out    io.Writer
	format Format
	level  slog.LevelVar
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.out.Write(p)
}

func (s *sink) handler() slog.Handler {
	opts := &slog.HandlerOptions{Level: &s.level}
	if s.format == FormatJSON {
		return slog.NewJSONHandler(s, opts)
	}
	return slog.NewTextHandler(s, opts)
}

// slogLogger implements Logger on top of log/slog.
type slogLogger struct {
	sink   *sink
	logger *slog.Logger
}

// New creates a text logger writing to stderr at info level.
func New() Logger {
	return NewWithOptions(os.Stderr, FormatText, LevelInfo)
}

// NewWithOutput creates a text logger with the specified output.
func NewWithOutput(w io.Writer) Logger {
	return NewWithOptions(w, FormatText, LevelInfo)
}

// NewWithOptions creates a logger with the given output, format and level.
func NewWithOptions(w io.Writer, format Format, level Level) Logger {
	s := &sink{out: w, format: format}
	s.level.Set(level.slogLevel())
	return &slogLogger{
		sink:   s,
		logger: slog.New(s.handler()),
	}
}

func (l *slogLogger) log(level Level, msg string, args ...interface{}) {
	lvl := level.slogLevel()
	if !l.logger.Enabled(context.Background(), lvl) {
		return
	}

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.logger.Log(context.Background(), lvl, formatted)
}

func (l *slogLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

func (l *slogLogger) WithField(key string, value interface{}) Logger {
	return &slogLogger{
		sink:   l.sink,
		logger: l.logger.With(key, value),
	}
}

func (l *slogLogger) WithFields(fields map[string]interface{}) Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{
		sink:   l.sink,
		logger: l.logger.With(args...),
	}
}

func (l *slogLogger) SetLevel(level Level) {
	l.sink.level.Set(level.slogLevel())
}

func (l *slogLogger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.out = w
}

func (l *slogLogger) Slog() *slog.Logger {
	return l.logger
}

// NopLogger is a logger that discards all output.
// Useful for testing or when logging should be disabled.
type NopLogger struct{}

func (NopLogger) Debug(msg string, args ...interface{})             {}
func (NopLogger) Info(msg string, args ...interface{})              {}
func (NopLogger) Warn(msg string, args ...interface{})              {}
func (NopLogger) Error(msg string, args ...interface{})             {}
func (n NopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n NopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (NopLogger) SetLevel(level Level)                              {}
func (NopLogger) SetOutput(w io.Writer)                             {}
func (NopLogger) Slog() *slog.Logger                                { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
