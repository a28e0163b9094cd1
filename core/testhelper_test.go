package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

// startTestLooper runs a looper on its own goroutine and quits it when the
// test ends.
func startTestLooper(t *testing.T, cfg *LooperConfig) *Looper {
	t.Helper()

	ht := NewHandlerThread(t.Name(), cfg)
	ht.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	l, err := ht.Looper(ctx)
	if err != nil {
		t.Fatalf("HandlerThread.Looper failed: %v", err)
	}
	t.Cleanup(func() {
		ht.Quit()
		if err := ht.Wait(); err != nil {
			t.Errorf("Loop returned error: %v", err)
		}
	})
	return l
}

// unstartedLooper creates a looper that is not registered to any goroutine,
// so its queue can be filled and inspected without a running loop.
func unstartedLooper(cfg *LooperConfig) *Looper {
	return newLooper(0, cfg)
}

// recorder collects values from handler callbacks.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
	notify chan struct{}
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{notify: make(chan struct{}, 1024)}
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// waitFor blocks until at least n values were recorded or timeout elapses.
func (r *recorder[T]) waitFor(t *testing.T, n int, timeout time.Duration) []T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		select {
		case <-r.notify:
		case <-deadline:
			got := r.snapshot()
			t.Fatalf("timed out waiting for %d values, got %d: %v", n, len(got), got)
			return got
		}
	}
}

// fakeMetrics captures Metrics calls.
type fakeMetrics struct {
	mu        sync.Mutex
	durations []int
	panics    int
	depths    []int
	rejected  []string
}

func (m *fakeMetrics) RecordDispatchDuration(looperName string, what int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, what)
}

func (m *fakeMetrics) RecordDispatchPanic(looperName string, panicInfo any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics++
}

func (m *fakeMetrics) RecordQueueDepth(looperName string, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depths = append(m.depths, depth)
}

func (m *fakeMetrics) RecordMessageRejected(looperName string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, reason)
}

func (m *fakeMetrics) counts() (dispatches, panics, rejected int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations), m.panics, len(m.rejected)
}

// fakePanicHandler captures HandlePanic calls.
type fakePanicHandler struct {
	mu     sync.Mutex
	values []any
	whats  []int
}

func (h *fakePanicHandler) HandlePanic(looperName string, what int, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, panicInfo)
	h.whats = append(h.whats, what)
}

func (h *fakePanicHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}

var _ Metrics = (*fakeMetrics)(nil)
var _ PanicHandler = (*fakePanicHandler)(nil)
