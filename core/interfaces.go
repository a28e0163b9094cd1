package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling dispatch panics
// =============================================================================

// PanicHandler is called when a handler or callback panics during dispatch.
// The looper recovers the panic, reports it here and keeps looping.
//
// Implementations should be thread-safe as they may be shared by several loopers.
type PanicHandler interface {
	// HandlePanic is called when a dispatch panics.
	//
	// Parameters:
	// - looperName: The name of the looper where the panic occurred
	// - what: The What of the message being dispatched (-1 for callbacks)
	// - panicInfo: The panic value recovered
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(looperName string, what int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler reports panics through Logger, or to stdout when Logger is nil.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic and its stack trace.
func (h *DefaultPanicHandler) HandlePanic(looperName string, what int, panicInfo any, stackTrace []byte) {
	if h.Logger == nil {
		fmt.Printf("[Looper %s] Panic dispatching what=%d: %v\nStack trace:\n%s",
			looperName, what, panicInfo, stackTrace)
		return
	}
	h.Logger.Error("dispatch panicked",
		F("looper", looperName),
		F("what", what),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting dispatch metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from the looper goroutine on the hot path and should be
// non-blocking and fast.
type Metrics interface {
	// RecordDispatchDuration records how long one dispatch took.
	RecordDispatchDuration(looperName string, what int, duration time.Duration)

	// RecordDispatchPanic records that a dispatch panicked.
	RecordDispatchPanic(looperName string, panicInfo any)

	// RecordQueueDepth records the number of pending messages.
	RecordQueueDepth(looperName string, depth int)

	// RecordMessageRejected records that a send was refused (e.g., after quit).
	RecordMessageRejected(looperName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordDispatchDuration is a no-op.
func (m *NilMetrics) RecordDispatchDuration(looperName string, what int, duration time.Duration) {
}

// RecordDispatchPanic is a no-op.
func (m *NilMetrics) RecordDispatchPanic(looperName string, panicInfo any) {
}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(looperName string, depth int) {
}

// RecordMessageRejected is a no-op.
func (m *NilMetrics) RecordMessageRejected(looperName string, reason string) {
}

// =============================================================================
// LooperConfig: Configuration for Looper
// =============================================================================

// LooperConfig holds configuration options for a Looper.
// All fields are optional; zero values fall back to DefaultLooperConfig.
type LooperConfig struct {
	// Name labels the looper in logs, metrics and stats. Defaults to "looper-<id prefix>".
	Name string

	// Logger receives lifecycle and warning messages. Defaults to NoOpLogger.
	Logger Logger

	// Metrics is called to record dispatch metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a dispatch panics. Defaults to DefaultPanicHandler
	// using Logger, or printing to stdout when Logger is unset.
	PanicHandler PanicHandler

	// Pool supplies messages obtained through handlers. Defaults to DefaultMessagePool.
	Pool *MessagePool

	// HistoryCapacity bounds the dispatch history ring. Defaults to 100.
	HistoryCapacity int

	// LockOSThread pins the loop goroutine to its OS thread while Loop runs,
	// for callers relying on thread-local state (e.g. CGO).
	LockOSThread bool
}

// DefaultLooperConfig returns a config with default handlers.
func DefaultLooperConfig() *LooperConfig {
	return &LooperConfig{
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		PanicHandler:    &DefaultPanicHandler{},
		Pool:            DefaultMessagePool(),
		HistoryCapacity: defaultHistoryCapacity,
	}
}

// withDefaults returns a copy of cfg with every unset field filled in.
func (cfg *LooperConfig) withDefaults() LooperConfig {
	out := *DefaultLooperConfig()
	if cfg == nil {
		return out
	}
	out.Name = cfg.Name
	out.LockOSThread = cfg.LockOSThread
	if cfg.Logger != nil {
		out.Logger = cfg.Logger
		out.PanicHandler = &DefaultPanicHandler{Logger: cfg.Logger}
	}
	if cfg.Metrics != nil {
		out.Metrics = cfg.Metrics
	}
	if cfg.PanicHandler != nil {
		out.PanicHandler = cfg.PanicHandler
	}
	if cfg.Pool != nil {
		out.Pool = cfg.Pool
	}
	if cfg.HistoryCapacity > 0 {
		out.HistoryCapacity = cfg.HistoryCapacity
	}
	return out
}
