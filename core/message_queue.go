package core

import (
	"container/heap"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// messageHeap orders pending messages by due time, then by arrival sequence.
type messageHeap []*Message

func (h messageHeap) Len() int { return len(h) }

func (h messageHeap) Less(i, j int) bool {
	if !h[i].when.Equal(h[j].when) {
		return h[i].when.Before(h[j].when)
	}
	// Same due time: earlier sequence first (FIFO)
	return h[i].seq < h[j].seq
}

func (h messageHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *messageHeap) Push(x any) {
	n := len(*h)
	m := x.(*Message)
	m.index = n
	*h = append(*h, m)
}

func (h *messageHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	old[n-1] = nil // avoid memory leak
	m.index = -1
	*h = old[0 : n-1]
	return m
}

// MessageQueue holds the pending messages of one Looper in due-time order.
//
// Enqueue, the Remove* family and Quit may be called from any goroutine.
// Next is reserved for the single consumer, normally the Looper's goroutine.
type MessageQueue struct {
	mu      sync.Mutex
	pq      messageHeap
	nextSeq uint64
	closed  bool
	blocked bool

	// wakeup has capacity 1 so a producer never blocks on signalling.
	wakeup chan struct{}

	// timer is touched only by the consumer.
	timer *time.Timer
}

// NewMessageQueue creates an empty, open queue.
func NewMessageQueue() *MessageQueue {
	q := &MessageQueue{
		pq:     make(messageHeap, 0, defaultQueueCap),
		wakeup: make(chan struct{}, 1),
	}
	heap.Init(&q.pq)
	return q
}

const defaultQueueCap = 16

// Enqueue links msg into the queue with the given due time, keeping the
// message's current target.
//
// It fails with ErrAlreadyPending if msg is linked into any queue, with
// ErrForeignTarget if msg targets a handler bound to another queue, and with
// ErrQueueClosed once Quit has been called. A zero when sorts before every
// timed message.
func (q *MessageQueue) Enqueue(msg *Message, when time.Time) error {
	return q.enqueue(msg, nil, when)
}

// enqueue stamps target onto msg only after msg is known not to be pending
// elsewhere, so a rejected message is left untouched.
func (q *MessageQueue) enqueue(msg *Message, target *Handler, when time.Time) error {
	if msg == nil {
		panic("looper: enqueue of nil message")
	}
	if !msg.pending.CompareAndSwap(false, true) {
		return fmt.Errorf("%w (what=%d)", ErrAlreadyPending, msg.What)
	}

	dest := target
	if dest == nil {
		dest = msg.target
	}
	if dest != nil && dest.queue != q {
		msg.pending.Store(false)
		return fmt.Errorf("%w (what=%d, handler=%s)", ErrForeignTarget, msg.What, dest.Name())
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		msg.pending.Store(false)
		return ErrQueueClosed
	}

	if target != nil {
		msg.target = target
	}
	msg.gen.Add(1)
	msg.when = when
	msg.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.pq, msg)

	// Only a new head changes how long the consumer has to wait.
	if q.blocked && msg.index == 0 {
		q.signalLocked()
	}
	return nil
}

// Next returns the next due message, blocking until one is due.
//
// It returns (nil, false) once the queue has been quit and every message that
// survived Quit has been handed out. Next must only be called by one
// goroutine.
func (q *MessageQueue) Next() (*Message, bool) {
	for {
		q.mu.Lock()
		q.blocked = false

		wait := time.Duration(-1)
		if len(q.pq) > 0 {
			head := q.pq[0]
			now := time.Now()
			if !now.Before(head.when) {
				heap.Pop(&q.pq)
				head.pending.Store(false)
				q.mu.Unlock()
				return head, true
			}
			wait = head.when.Sub(now)
		} else if q.closed {
			q.mu.Unlock()
			return nil, false
		}

		q.blocked = true
		q.mu.Unlock()

		q.park(wait)
	}
}

// park blocks until a wakeup signal arrives or, for wait >= 0, until wait has
// elapsed. Either way the caller re-reads the head; a wake may be spurious.
func (q *MessageQueue) park(wait time.Duration) {
	if wait < 0 {
		<-q.wakeup
		return
	}

	if q.timer == nil {
		q.timer = time.NewTimer(wait)
	} else {
		q.timer.Reset(wait)
	}

	select {
	case <-q.wakeup:
		q.timer.Stop()
	case <-q.timer.C:
	}
}

func (q *MessageQueue) signalLocked() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

// Quit closes the queue. Subsequent Enqueue calls fail with ErrQueueClosed.
//
// With safe set, messages already due at the time of the call stay
// deliverable and later ones are discarded; otherwise every pending message
// is discarded. Discarded messages are released to their pools. Repeated
// calls are no-ops and report false.
func (q *MessageQueue) Quit(safe bool) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.closed = true

	var discarded []*Message
	if safe {
		now := time.Now()
		discarded = q.removeWhereLocked(func(m *Message) bool {
			return m.when.After(now)
		})
	} else {
		discarded = q.removeWhereLocked(func(*Message) bool { return true })
	}
	q.signalLocked()
	q.mu.Unlock()

	releaseAll(discarded)
	return true
}

// RemoveMessages unlinks every pending message sent through h with the given
// What. A message already handed out by Next is not affected.
func (q *MessageQueue) RemoveMessages(h *Handler, what int) int {
	return q.remove(func(m *Message) bool {
		return m.target == h && m.callback == nil && m.What == what
	})
}

// RemoveMessagesWithObj is RemoveMessages restricted to messages whose Obj
// equals obj. A nil obj matches any payload.
func (q *MessageQueue) RemoveMessagesWithObj(h *Handler, what int, obj any) int {
	return q.remove(func(m *Message) bool {
		return m.target == h && m.callback == nil && m.What == what && objMatches(m.Obj, obj)
	})
}

// RemoveAllMessages unlinks every pending message and callback sent through h.
func (q *MessageQueue) RemoveAllMessages(h *Handler) int {
	return q.remove(func(m *Message) bool {
		return m.target == h
	})
}

// HasMessages reports whether a message with the given What sent through h
// is pending.
func (q *MessageQueue) HasMessages(h *Handler, what int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range q.pq {
		if m.target == h && m.callback == nil && m.What == what {
			return true
		}
	}
	return false
}

func (q *MessageQueue) remove(match func(*Message) bool) int {
	q.mu.Lock()
	removed := q.removeWhereLocked(match)
	q.mu.Unlock()

	releaseAll(removed)
	return len(removed)
}

// removeWhereLocked unlinks the messages matching pred and re-establishes the
// heap. Arrival sequences are kept, so relative order is unchanged.
func (q *MessageQueue) removeWhereLocked(pred func(*Message) bool) []*Message {
	var removed []*Message
	kept := q.pq[:0]
	for _, m := range q.pq {
		if pred(m) {
			m.index = -1
			m.pending.Store(false)
			removed = append(removed, m)
			continue
		}
		m.index = len(kept)
		kept = append(kept, m)
	}
	// Zero out trailing slots to release references
	for i := len(kept); i < len(q.pq); i++ {
		q.pq[i] = nil
	}
	q.pq = kept
	if len(removed) > 0 {
		heap.Init(&q.pq)
	}
	return removed
}

func releaseAll(msgs []*Message) {
	for _, m := range msgs {
		_ = m.Release()
	}
}

func objMatches(have, want any) bool {
	if want == nil {
		return true
	}
	if have == nil {
		return false
	}
	hv, wv := reflect.ValueOf(have), reflect.ValueOf(want)
	if hv.Type() != wv.Type() || !hv.Comparable() {
		return false
	}
	return hv.Equal(wv)
}

// Len returns the number of pending messages.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pq)
}

// IsIdle reports whether no message is due right now.
func (q *MessageQueue) IsIdle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pq) == 0 || time.Now().Before(q.pq[0].when)
}

// IsClosed reports whether Quit has been called.
func (q *MessageQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
