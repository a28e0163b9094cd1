package core

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Swind/go-looper/bundle"
)

// Message is the unit of work delivered to a Handler.
//
// What, Arg1, Arg2 and Obj are free for the application to use. Obj is opaque
// to the looper; it may hold a *bundle.Bundle or any other value. A message is
// owned by its queue while pending and returns to its pool right after
// dispatch, so handlers must not retain it past HandleMessage.
type Message struct {
	// What identifies the message to its handler.
	What int

	Arg1 int
	Arg2 int

	// Obj is an arbitrary payload.
	Obj any

	data     *bundle.Bundle
	callback func()
	target   *Handler
	when     time.Time

	// Queue bookkeeping, guarded by the owning queue's mutex.
	seq   uint64
	index int

	pending atomic.Bool

	// gen changes whenever the message is acquired or enqueued.
	gen atomic.Uint64

	// Pool bookkeeping, guarded by the pool's mutex.
	pool *MessagePool
	slot int
	free bool
}

// NewMessage allocates a message that does not belong to any pool.
func NewMessage() *Message {
	return &Message{index: -1, slot: -1}
}

// ObtainMessage draws a message from the default pool.
func ObtainMessage() *Message {
	return defaultPool.Acquire()
}

// When returns the absolute time before which the message is not delivered.
// It is zero until the message is sent.
func (m *Message) When() time.Time { return m.when }

// Target returns the handler the message was sent through, or nil.
func (m *Message) Target() *Handler { return m.target }

// Callback returns the direct callback the message carries, or nil.
func (m *Message) Callback() func() { return m.callback }

// SetCallback makes the message run fn instead of its handler's strategy.
func (m *Message) SetCallback(fn func()) { m.callback = fn }

// IsPending reports whether the message is linked into a queue.
func (m *Message) IsPending() bool { return m.pending.Load() }

// Data returns the message's bundle, creating an empty one if needed.
func (m *Message) Data() *bundle.Bundle {
	if m.data == nil {
		m.data = bundle.New()
	}
	return m.data
}

// PeekData returns the message's bundle without creating one.
func (m *Message) PeekData() *bundle.Bundle { return m.data }

// SetData replaces the message's bundle.
func (m *Message) SetData(b *bundle.Bundle) { m.data = b }

// CopyFrom copies the application fields of o into m. The bundle is cloned
// shallowly; target, due time and pool state are left untouched.
func (m *Message) CopyFrom(o *Message) {
	m.What = o.What
	m.Arg1 = o.Arg1
	m.Arg2 = o.Arg2
	m.Obj = o.Obj
	m.callback = o.callback
	if o.data != nil {
		m.data = o.data.Clone()
	} else {
		m.data = nil
	}
}

// Release returns the message to the pool it was drawn from. Unpooled
// messages are only reset. Releasing a pending message fails with
// ErrMessageInUse.
func (m *Message) Release() error {
	if m.pool != nil {
		return m.pool.Release(m)
	}
	if m.pending.Load() {
		return ErrMessageInUse
	}
	m.reset()
	return nil
}

// releaseIfOwned releases m only if nobody acquired or enqueued it since gen
// was read. A dispatched message forwarded to another queue belongs to that
// queue from then on.
func (m *Message) releaseIfOwned(gen uint64) {
	if m.pool != nil {
		m.pool.releaseIfOwned(m, gen)
		return
	}
	if m.gen.Load() == gen && !m.pending.Load() {
		m.reset()
	}
}

func (m *Message) reset() {
	m.What = 0
	m.Arg1 = 0
	m.Arg2 = 0
	m.Obj = nil
	m.data = nil
	m.callback = nil
	m.target = nil
	m.when = time.Time{}
	m.seq = 0
	m.index = -1
}

func (m *Message) String() string {
	return m.describe(time.Now())
}

func (m *Message) describe(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("{ when=")
	if m.when.IsZero() {
		sb.WriteString("front")
	} else {
		sb.WriteString(m.when.Sub(now).Round(time.Millisecond).String())
	}
	if m.callback != nil {
		sb.WriteString(" callback=func")
	} else {
		fmt.Fprintf(&sb, " what=%d", m.What)
	}
	if m.Arg1 != 0 {
		fmt.Fprintf(&sb, " arg1=%d", m.Arg1)
	}
	if m.Arg2 != 0 {
		fmt.Fprintf(&sb, " arg2=%d", m.Arg2)
	}
	if m.Obj != nil {
		fmt.Fprintf(&sb, " obj=%v", m.Obj)
	}
	if m.target != nil {
		fmt.Fprintf(&sb, " target=%s", m.target.Name())
	}
	sb.WriteString(" }")
	return sb.String()
}
