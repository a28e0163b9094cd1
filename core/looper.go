package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	statePrepared int32 = iota
	stateLooping
	stateTerminated
)

// Looper binds a MessageQueue to the goroutine that prepared it and runs the
// fetch-dispatch cycle on that goroutine.
//
// A goroutine prepares at most one Looper. After Loop returns, or after
// Unprepare, the Looper is terminal and the goroutine's registry entry is gone.
type Looper struct {
	id    string
	gid   uint64
	queue *MessageQueue
	cfg   LooperConfig

	mu   sync.Mutex
	name string

	state atomic.Int32
	done  chan struct{}

	// internal posts looper-owned work such as Flush barriers.
	internal *Handler

	history    *dispatchHistory
	dispatched atomic.Int64
	panicked   atomic.Int64
	rejected   atomic.Int64
}

// Prepare creates a Looper for the calling goroutine with the default config.
//
// The goroutine's registry entry lives until Loop returns. A goroutine that
// prepares but will not loop must call Unprepare before it exits.
func Prepare() (*Looper, error) {
	return PrepareWithConfig(nil)
}

// PrepareWithConfig creates a Looper and a fresh MessageQueue bound to the
// calling goroutine. It fails with ErrAlreadyPrepared if the goroutine already
// has one.
func PrepareWithConfig(cfg *LooperConfig) (*Looper, error) {
	gid := goroutineID()
	l := newLooper(gid, cfg)
	if !registry.bind(gid, l) {
		return nil, ErrAlreadyPrepared
	}
	l.cfg.Logger.Debug("looper prepared", F("looper", l.Name()), F("id", l.id), F("goroutine", gid))
	return l, nil
}

func newLooper(gid uint64, cfg *LooperConfig) *Looper {
	resolved := cfg.withDefaults()
	id := uuid.NewString()
	name := resolved.Name
	if name == "" {
		name = "looper-" + id[:8]
	}

	l := &Looper{
		id:      id,
		gid:     gid,
		queue:   NewMessageQueue(),
		cfg:     resolved,
		name:    name,
		done:    make(chan struct{}),
		history: newDispatchHistory(resolved.HistoryCapacity),
	}
	l.internal = &Handler{looper: l, queue: l.queue, strategy: noopHandler{}, name: "internal"}
	return l
}

// MyLooper returns the Looper prepared on the calling goroutine, or nil.
func MyLooper() *Looper {
	return registry.get(goroutineID())
}

// MyQueue returns the queue of the calling goroutine's Looper, or nil.
func MyQueue() *MessageQueue {
	if l := MyLooper(); l != nil {
		return l.queue
	}
	return nil
}

// ID returns the looper's unique id.
func (l *Looper) ID() string { return l.id }

// Name returns the name of the looper
func (l *Looper) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// SetName sets the name of the looper
func (l *Looper) SetName(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = name
}

// Queue returns the looper's message queue.
func (l *Looper) Queue() *MessageQueue { return l.queue }

// IsCurrentGoroutine reports whether the caller runs on the looper's goroutine.
func (l *Looper) IsCurrentGoroutine() bool {
	return goroutineID() == l.gid
}

// Done is closed once Loop has returned or the looper was unprepared.
func (l *Looper) Done() <-chan struct{} { return l.done }

// Loop runs the message loop until the queue is quit and drained.
//
// It must be called on the goroutine that prepared the Looper, and only once.
// Each message is dispatched to its target handler synchronously; the next
// message is not fetched until that dispatch returns.
func (l *Looper) Loop() error {
	if goroutineID() != l.gid {
		return ErrNotLooperGoroutine
	}
	if !l.state.CompareAndSwap(statePrepared, stateLooping) {
		if l.state.Load() == stateLooping {
			return ErrCalledOnLooper
		}
		return ErrLooperTerminated
	}

	if l.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	defer func() {
		l.state.Store(stateTerminated)
		registry.unbind(l.gid, l)
		close(l.done)
	}()

	logger := l.cfg.Logger
	logger.Debug("looper started", F("looper", l.Name()))

	for {
		msg, ok := l.queue.Next()
		if !ok {
			logger.Debug("looper quit", F("looper", l.Name()), F("dispatched", l.dispatched.Load()))
			return nil
		}
		l.dispatch(msg)
	}
}

// dispatch invokes msg's target and releases msg afterwards. Panics are
// recovered so the loop survives a misbehaving handler.
func (l *Looper) dispatch(msg *Message) {
	name := l.Name()
	record := DispatchRecord{
		What:       msg.What,
		Callback:   msg.callback != nil,
		LooperName: name,
		DueAt:      msg.when,
	}
	if msg.target != nil {
		record.Handler = msg.target.Name()
	}
	what := msg.What
	if record.Callback {
		what = -1
	}

	gen := msg.gen.Load()
	record.StartedAt = time.Now()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				record.Panicked = true
				l.panicked.Add(1)
				l.cfg.Metrics.RecordDispatchPanic(name, rec)
				l.cfg.PanicHandler.HandlePanic(name, what, rec, debug.Stack())
			}
		}()
		switch {
		case msg.target != nil:
			msg.target.DispatchMessage(msg)
		case msg.callback != nil:
			msg.callback()
		default:
			l.cfg.Logger.Warn("dropping message without target", F("looper", name), F("what", msg.What))
		}
	}()
	record.FinishedAt = time.Now()
	record.Duration = record.FinishedAt.Sub(record.StartedAt)

	l.dispatched.Add(1)
	l.history.Add(record)
	l.cfg.Metrics.RecordDispatchDuration(name, what, record.Duration)
	l.cfg.Metrics.RecordQueueDepth(name, l.queue.Len())

	// A message the handler re-sent belongs to the queue it went to.
	msg.releaseIfOwned(gen)
}

// rejectedSend records a send refused because the queue was closed.
func (l *Looper) rejectedSend(h *Handler, msg *Message) {
	l.rejected.Add(1)
	name := l.Name()
	l.cfg.Metrics.RecordMessageRejected(name, "quit")
	l.cfg.Logger.Warn("sending message to a handler on a dead looper",
		F("looper", name),
		F("handler", h.Name()),
		F("what", msg.What),
	)
	_ = msg.Release()
}

// Unprepare abandons a Looper that never looped: its queue is quit, pending
// messages are released and the goroutine's registry entry is removed, so the
// goroutine may prepare again. It must be called on the preparing goroutine.
func (l *Looper) Unprepare() error {
	if goroutineID() != l.gid {
		return ErrNotLooperGoroutine
	}
	if !l.state.CompareAndSwap(statePrepared, stateTerminated) {
		if l.state.Load() == stateLooping {
			return ErrCalledOnLooper
		}
		return ErrLooperTerminated
	}

	l.queue.Quit(false)
	registry.unbind(l.gid, l)
	close(l.done)
	l.cfg.Logger.Debug("looper unprepared", F("looper", l.Name()))
	return nil
}

// Quit stops the loop, discarding every pending message. It may be called
// from any goroutine. Sends after Quit fail with ErrQueueClosed.
func (l *Looper) Quit() {
	if l.queue.Quit(false) {
		l.cfg.Logger.Debug("looper quitting", F("looper", l.Name()), F("safe", false))
	}
}

// QuitSafely stops the loop once every message already due has been
// dispatched; messages due later are discarded.
func (l *Looper) QuitSafely() {
	if l.queue.Quit(true) {
		l.cfg.Logger.Debug("looper quitting", F("looper", l.Name()), F("safe", true))
	}
}

// Flush blocks until every message due at the time of the call has been
// dispatched. It is implemented by posting a barrier callback and waiting for
// it to run.
//
// Returns an error if the looper has quit, if ctx ends first, or if called
// from the looper's own goroutine.
func (l *Looper) Flush(ctx context.Context) error {
	if l.IsCurrentGoroutine() {
		return ErrCalledOnLooper
	}

	done := make(chan struct{})
	if err := l.internal.Post(func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.done:
		// The barrier may have run just before the loop ended.
		select {
		case <-done:
			return nil
		default:
			return ErrQueueClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecentDispatches returns up to limit dispatch records, newest first.
func (l *Looper) RecentDispatches(limit int) []DispatchRecord {
	return l.history.Recent(limit)
}

// LastDispatch returns the most recent dispatch record.
func (l *Looper) LastDispatch() (DispatchRecord, bool) {
	return l.history.Last()
}

// Stats returns a snapshot of the looper's state.
func (l *Looper) Stats() LooperStats {
	stats := LooperStats{
		ID:         l.id,
		Name:       l.Name(),
		Pending:    l.queue.Len(),
		Dispatched: l.dispatched.Load(),
		Panicked:   l.panicked.Load(),
		Rejected:   l.rejected.Load(),
		Running:    l.state.Load() == stateLooping,
		Quitting:   l.queue.IsClosed(),
	}
	if last, ok := l.history.Last(); ok {
		stats.LastWhat = last.What
		stats.LastDispatch = last.FinishedAt
	}
	return stats
}

// =============================================================================
// Main Looper
// =============================================================================

var mainLooper atomic.Pointer[Looper]

// PrepareMainLooper prepares the calling goroutine's Looper and records it as
// the process-wide main looper.
func PrepareMainLooper(cfg *LooperConfig) (*Looper, error) {
	if mainLooper.Load() != nil {
		return nil, ErrAlreadyPrepared
	}
	if cfg == nil {
		cfg = &LooperConfig{Name: "main"}
	}
	l, err := PrepareWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !mainLooper.CompareAndSwap(nil, l) {
		registry.unbind(l.gid, l)
		return nil, ErrAlreadyPrepared
	}
	return l, nil
}

// MainLooper returns the process-wide main looper, or nil.
func MainLooper() *Looper {
	return mainLooper.Load()
}
