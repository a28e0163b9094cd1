// Package zerolog adapts github.com/rs/zerolog to core.Logger.
package zerolog

import (
	"io"
	"os"

	"github.com/Swind/go-looper/core"
	"github.com/rs/zerolog"
)

// Logger writes core log calls as zerolog events.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New wraps an existing zerolog.Logger.
func New(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// NewLeveled returns a JSON logger writing events at or above level.
// Warnings and errors go to stderr, everything else to stdout.
func NewLeveled(level zerolog.Level) *Logger {
	zl := zerolog.New(LevelOut{}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return New(zl)
}

// Zerolog returns the wrapped logger.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// With returns a child logger that adds fields to every event.
func (l *Logger) With(fields ...core.Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return New(ctx.Logger())
}

func (l *Logger) Debug(msg string, fields ...core.Field) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...core.Field) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...core.Field) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...core.Field) {
	emit(l.zl.Error(), msg, fields)
}

// emit is a no-op when the level is disabled; zerolog then returns a nil event.
func emit(e *zerolog.Event, msg string, fields []core.Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case uint64:
			e = e.Uint64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}

// LevelOut implements zerolog.LevelWriter
type LevelOut struct{}

var (
	debugOut io.Writer = os.Stdout
	errorOut io.Writer = os.Stderr
)

// Write should not be called
func (LevelOut) Write(p []byte) (n int, err error) {
	return debugOut.Write(p)
}

// WriteLevel write to the appropriate output
func (LevelOut) WriteLevel(level zerolog.Level, p []byte) (n int, err error) {
	if level < zerolog.WarnLevel {
		return debugOut.Write(p)
	}
	return errorOut.Write(p)
}
