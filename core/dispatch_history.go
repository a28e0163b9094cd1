package core

import "sync"

const defaultHistoryCapacity = 100

// dispatchHistory is a fixed-size ring of the most recent dispatches.
// The looper goroutine writes; any goroutine may read.
type dispatchHistory struct {
	mu    sync.Mutex
	items []DispatchRecord
	head  int
	count int
}

func newDispatchHistory(capacity int) *dispatchHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &dispatchHistory{items: make([]DispatchRecord, capacity)}
}

func (h *dispatchHistory) Add(record DispatchRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. A non-positive limit
// returns everything retained.
func (h *dispatchHistory) Recent(limit int) []DispatchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]DispatchRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *dispatchHistory) Last() (DispatchRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return DispatchRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}
