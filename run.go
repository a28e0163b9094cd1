package looper

import (
	"context"
	"sync"

	"github.com/Swind/go-looper/core"
)

// Run prepares a Looper on the calling goroutine, calls setup with it and
// then runs the loop until it quits. If setup fails the loop never starts:
// the looper is unprepared, discarding anything setup sent, and setup's
// error is returned.
func Run(cfg *LooperConfig, setup func(l *Looper) error) error {
	l, err := core.PrepareWithConfig(cfg)
	if err != nil {
		return err
	}
	if setup != nil {
		if err := setup(l); err != nil {
			_ = l.Unprepare()
			return err
		}
	}
	return l.Loop()
}

// =============================================================================
// Global Background Looper Helper (Singleton)
// =============================================================================

var (
	background   *core.HandlerThread
	backgroundMu sync.Mutex
)

// InitBackgroundThread starts the process-wide background HandlerThread.
// Repeated calls are no-ops until ShutdownBackgroundThread.
func InitBackgroundThread(cfg *LooperConfig) {
	backgroundMu.Lock()
	defer backgroundMu.Unlock()

	if background != nil {
		return // Already initialized
	}

	background = core.NewHandlerThread("background", cfg)
	background.Start()
}

// BackgroundLooper returns the background looper.
// It panics if InitBackgroundThread has not been called.
func BackgroundLooper() *Looper {
	backgroundMu.Lock()
	ht := background
	backgroundMu.Unlock()

	if ht == nil {
		panic("background looper not initialized. Call InitBackgroundThread() first.")
	}
	l, err := ht.Looper(context.Background())
	if err != nil {
		panic(err)
	}
	return l
}

// NewBackgroundHandler creates a handler on the background looper.
func NewBackgroundHandler(h MessageHandler) *Handler {
	handler, err := core.NewHandler(BackgroundLooper(), h)
	if err != nil {
		panic(err)
	}
	return handler
}

// ShutdownBackgroundThread quits the background looper after its due
// messages are dispatched and waits for the goroutine to exit.
func ShutdownBackgroundThread() error {
	backgroundMu.Lock()
	defer backgroundMu.Unlock()

	if background == nil {
		return nil
	}
	// The looper may not be prepared yet; wait so QuitSafely reaches it.
	if l, err := background.Looper(context.Background()); err == nil {
		l.QuitSafely()
	}
	err := background.Wait()
	background = nil
	return err
}
