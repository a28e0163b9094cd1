package core

import (
	"context"
	"sync"
)

// HandlerThread owns a goroutine that prepares a Looper and runs its loop.
//
// Use it when a component needs its own serial execution context, e.g. a
// blocking IO reader or state that must only be touched from one goroutine:
//
//	ht := core.NewHandlerThread("io", nil)
//	ht.Start()
//	l, _ := ht.Looper(ctx)
//	h, _ := core.NewHandler(l, core.HandlerFunc(func(m *core.Message) { ... }))
//	h.SendEmptyMessage(1)
//	ht.QuitSafely()
//	ht.Wait()
type HandlerThread struct {
	name string
	cfg  *LooperConfig

	startOnce sync.Once
	ready     chan struct{}
	exited    chan struct{}

	// Written by the loop goroutine before ready / exited close.
	looper  *Looper
	err     error
	loopErr error
}

// NewHandlerThread creates a HandlerThread; cfg may be nil. The
// looper is named after the thread unless cfg sets a name.
func NewHandlerThread(name string, cfg *LooperConfig) *HandlerThread {
	var c LooperConfig
	if cfg != nil {
		c = *cfg
	}
	if c.Name == "" {
		c.Name = name
	}
	return &HandlerThread{
		name:   name,
		cfg:    &c,
		ready:  make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Name returns the thread's name.
func (t *HandlerThread) Name() string { return t.name }

// Start spawns the loop goroutine. Repeated calls are no-ops.
func (t *HandlerThread) Start() {
	t.startOnce.Do(func() {
		go t.run()
	})
}

func (t *HandlerThread) run() {
	defer close(t.exited)

	l, err := PrepareWithConfig(t.cfg)
	t.looper, t.err = l, err
	close(t.ready)
	if err != nil {
		return
	}
	t.loopErr = l.Loop()
}

// Looper blocks until the thread's looper is prepared. It returns ctx's error
// if ctx ends first.
func (t *HandlerThread) Looper(ctx context.Context) (*Looper, error) {
	select {
	case <-t.ready:
		return t.looper, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NewHandler creates a handler bound to the thread's looper, waiting for it
// to be prepared.
func (t *HandlerThread) NewHandler(ctx context.Context, h MessageHandler) (*Handler, error) {
	l, err := t.Looper(ctx)
	if err != nil {
		return nil, err
	}
	return NewHandler(l, h)
}

// Quit stops the looper, discarding pending messages. It reports false if the
// thread was never started or its looper is not ready yet.
func (t *HandlerThread) Quit() bool {
	l := t.readyLooper()
	if l == nil {
		return false
	}
	l.Quit()
	return true
}

// QuitSafely stops the looper after dispatching every message already due.
func (t *HandlerThread) QuitSafely() bool {
	l := t.readyLooper()
	if l == nil {
		return false
	}
	l.QuitSafely()
	return true
}

func (t *HandlerThread) readyLooper() *Looper {
	select {
	case <-t.ready:
		return t.looper
	default:
		return nil
	}
}

// Wait blocks until the loop goroutine exits and returns the error that
// ended it, if any. Call it only after Start.
func (t *HandlerThread) Wait() error {
	<-t.exited
	if t.err != nil {
		return t.err
	}
	return t.loopErr
}

// Done is closed when the loop goroutine exits.
func (t *HandlerThread) Done() <-chan struct{} { return t.exited }
