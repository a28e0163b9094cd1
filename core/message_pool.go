package core

import "sync"

// DefaultPoolLimit is the number of arena slots the default pool keeps.
const DefaultPoolLimit = 50

var defaultPool = NewMessagePool(DefaultPoolLimit)

// DefaultMessagePool returns the process-wide pool used by ObtainMessage and
// by loopers that are not configured with their own pool.
func DefaultMessagePool() *MessagePool {
	return defaultPool
}

// MessagePool is an arena of reusable messages with a free-list of slot
// indices. Acquire and Release may be called from any goroutine.
//
// Once the arena holds limit slots, Acquire hands out unpooled messages that
// Release only resets.
type MessagePool struct {
	mu    sync.Mutex
	arena []*Message
	free  []int
	limit int
}

// NewMessagePool creates a pool with at most limit arena slots.
func NewMessagePool(limit int) *MessagePool {
	if limit < 0 {
		limit = 0
	}
	return &MessagePool{
		arena: make([]*Message, 0, limit),
		free:  make([]int, 0, limit),
		limit: limit,
	}
}

// Acquire returns a blank message, reusing a free slot when one exists.
func (p *MessagePool) Acquire() *Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		m := p.arena[slot]
		m.free = false
		m.gen.Add(1)
		return m
	}

	if len(p.arena) < p.limit {
		m := &Message{index: -1, pool: p, slot: len(p.arena)}
		p.arena = append(p.arena, m)
		return m
	}

	return NewMessage()
}

// Release resets m and puts its slot back on the free-list. Releasing an
// already released message is a no-op.
func (p *MessagePool) Release(m *Message) error {
	if m.pending.Load() {
		return ErrMessageInUse
	}
	if m.pool != p {
		m.reset()
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked(m)
	return nil
}

// releaseIfOwned is Release guarded by a generation snapshot. Acquire bumps
// the generation under p.mu, so a slot handed to a new owner is never reset.
func (p *MessagePool) releaseIfOwned(m *Message, gen uint64) {
	if m.pool != p {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if m.gen.Load() != gen || m.pending.Load() {
		return
	}
	p.releaseLocked(m)
}

func (p *MessagePool) releaseLocked(m *Message) {
	if m.free {
		return
	}
	m.reset()
	m.free = true
	p.free = append(p.free, m.slot)
}

// Allocated returns the number of arena slots created so far.
func (p *MessagePool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arena)
}

// Free returns the number of slots currently available for reuse.
func (p *MessagePool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Stats returns a snapshot of the arena.
func (p *MessagePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Limit:     p.limit,
		Allocated: len(p.arena),
		Free:      len(p.free),
		InUse:     len(p.arena) - len(p.free),
	}
}
