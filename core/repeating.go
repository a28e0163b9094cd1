package core

import (
	"sync/atomic"
	"time"
)

// RepeatingHandle controls a callback posted with PostRepeating.
type RepeatingHandle struct {
	handler  *Handler
	fn       func()
	interval time.Duration
	stopped  atomic.Bool
	runs     atomic.Int64
}

// PostRepeating runs fn on the looper after initialDelay and then every
// interval, measured from the end of each run, until the handle is stopped or
// the looper quits.
func (h *Handler) PostRepeating(fn func(), initialDelay, interval time.Duration) (*RepeatingHandle, error) {
	if fn == nil {
		panic("looper: repeating post of nil callback")
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	rh := &RepeatingHandle{handler: h, fn: fn, interval: interval}
	if err := h.PostDelayed(rh.run, initialDelay); err != nil {
		return nil, err
	}
	return rh, nil
}

// Stop prevents further runs. A run already executing completes.
func (rh *RepeatingHandle) Stop() {
	rh.stopped.Store(true)
}

// IsStopped reports whether Stop has been called.
func (rh *RepeatingHandle) IsStopped() bool {
	return rh.stopped.Load()
}

// Runs returns how many times the callback has run.
func (rh *RepeatingHandle) Runs() int64 {
	return rh.runs.Load()
}

func (rh *RepeatingHandle) run() {
	if rh.IsStopped() {
		return
	}

	rh.fn()
	rh.runs.Add(1)

	if rh.IsStopped() {
		return
	}
	// ErrQueueClosed here means the looper quit; the cycle just ends.
	_ = rh.handler.PostDelayed(rh.run, rh.interval)
}
