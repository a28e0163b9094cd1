package core

import "time"

// DispatchRecord captures one completed dispatch.
type DispatchRecord struct {
	What       int
	Callback   bool
	Handler    string
	LooperName string
	DueAt      time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// Latency is how long the message waited past its due time.
func (r DispatchRecord) Latency() time.Duration {
	if r.DueAt.IsZero() || r.StartedAt.Before(r.DueAt) {
		return 0
	}
	return r.StartedAt.Sub(r.DueAt)
}

// LooperStats represents runtime observability state for a looper.
type LooperStats struct {
	ID           string
	Name         string
	Pending      int
	Dispatched   int64
	Panicked     int64
	Rejected     int64
	Running      bool
	Quitting     bool
	LastWhat     int
	LastDispatch time.Time
}

// PoolStats is a snapshot of a MessagePool's arena.
type PoolStats struct {
	Limit     int
	Allocated int
	Free      int
	InUse     int
}
