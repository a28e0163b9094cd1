package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Swind/go-looper/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64

	// WhatLabel maps a message's what code to the "what" label. The default
	// uses the decimal code and "callback" for posted callbacks. Supply a
	// mapping with bounded output when what codes are unbounded.
	WhatLabel func(what int) string
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	whatLabel func(int) string

	dispatchDurationSeconds *prom.HistogramVec
	dispatchPanicTotal      *prom.CounterVec
	messagesRejectedTotal   *prom.CounterVec
	queueDepth              *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "looper"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}
	whatLabel := opts.WhatLabel
	if whatLabel == nil {
		whatLabel = defaultWhatLabel
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Message dispatch duration in seconds.",
		Buckets:   buckets,
	}, []string{"looper", "what"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_panic_total",
		Help:      "Total number of panics recovered during dispatch.",
	}, []string{"looper"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "messages_rejected_total",
		Help:      "Total number of messages rejected by a quit looper.",
	}, []string{"looper", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Pending messages after the last dispatch.",
	}, []string{"looper"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		whatLabel:               whatLabel,
		dispatchDurationSeconds: durationVec,
		dispatchPanicTotal:      panicVec,
		messagesRejectedTotal:   rejectedVec,
		queueDepth:              queueDepthVec,
	}, nil
}

// RecordDispatchDuration records how long a dispatch took.
func (m *MetricsExporter) RecordDispatchDuration(looperName string, what int, duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDurationSeconds.WithLabelValues(normalizeLabel(looperName, "unknown"), m.whatLabel(what)).Observe(duration.Seconds())
}

// RecordDispatchPanic records a recovered dispatch panic.
func (m *MetricsExporter) RecordDispatchPanic(looperName string, panicInfo any) {
	if m == nil {
		return
	}
	m.dispatchPanicTotal.WithLabelValues(normalizeLabel(looperName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(looperName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(looperName, "unknown")).Set(float64(depth))
}

// RecordMessageRejected records a send refused by a quit looper.
func (m *MetricsExporter) RecordMessageRejected(looperName string, reason string) {
	if m == nil {
		return
	}
	m.messagesRejectedTotal.WithLabelValues(normalizeLabel(looperName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultWhatLabel(what int) string {
	if what < 0 {
		return "callback"
	}
	return strconv.Itoa(what)
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
