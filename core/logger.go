package core

import (
	"fmt"
	"log"
	"strings"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior (e.g., integration with zerolog, logrus, etc.)
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// LogLevel is the minimum severity a DefaultLogger writes.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
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
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// DefaultLogger is a simple logger implementation using the standard log package
type DefaultLogger struct {
	minLevel LogLevel
	out      *log.Logger
}

// NewDefaultLogger creates a DefaultLogger that writes Info and above
func NewDefaultLogger() *DefaultLogger {
	return NewLeveledLogger(LevelInfo)
}

// NewLeveledLogger creates a DefaultLogger that drops messages below minLevel
func NewLeveledLogger(minLevel LogLevel) *DefaultLogger {
	return &DefaultLogger{minLevel: minLevel, out: log.Default()}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.minLevel {
		return
	}
	l.out.Println(formatLogLine(level, msg, fields))
}

func formatLogLine(level LogLevel, msg string, fields []Field) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", level, msg)
	if len(fields) > 0 {
		sb.WriteString(" {")
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", f.Key, f.Value)
		}
		sb.WriteString("}")
	}
	return sb.String()
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
