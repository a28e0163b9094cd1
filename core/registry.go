package core

import (
	"runtime"
	"sync"
)

// looperRegistry maps goroutine ids to the Looper prepared on them.
type looperRegistry struct {
	mu      sync.RWMutex
	loopers map[uint64]*Looper
}

var registry = &looperRegistry{loopers: make(map[uint64]*Looper)}

func (r *looperRegistry) get(gid uint64) *Looper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loopers[gid]
}

// bind records l for gid unless gid already has a looper.
func (r *looperRegistry) bind(gid uint64, l *Looper) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loopers[gid]; ok {
		return false
	}
	r.loopers[gid] = l
	return true
}

// unbind removes gid's entry if it still points at l.
func (r *looperRegistry) unbind(gid uint64, l *Looper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loopers[gid] == l {
		delete(r.loopers, gid)
	}
}

func (r *looperRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loopers)
}

// goroutineID parses the current goroutine's id from its stack header,
// which starts with "goroutine NNN [".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
