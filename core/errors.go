package core

import "errors"

var (
	// ErrAlreadyPrepared is returned when a goroutine prepares a second Looper.
	ErrAlreadyPrepared = errors.New("looper: only one looper may be prepared per goroutine")

	// ErrNoLooper is returned when a Handler is created without a Looper and
	// the calling goroutine has none prepared.
	ErrNoLooper = errors.New("looper: no looper prepared for this goroutine")

	// ErrAlreadyPending is returned when a message that is still linked into a
	// queue is enqueued again.
	ErrAlreadyPending = errors.New("looper: message is already pending in a queue")

	// ErrForeignTarget is returned when a message is inserted directly into a
	// queue other than the one its target handler is bound to.
	ErrForeignTarget = errors.New("looper: message targets a handler on another queue")

	// ErrQueueClosed is returned when a message is sent to a looper that has
	// quit. Producers racing a shutdown are expected to see it.
	ErrQueueClosed = errors.New("looper: message queue is closed")

	// ErrNotLooperGoroutine is returned when Loop is called from a goroutine
	// other than the one that prepared the Looper.
	ErrNotLooperGoroutine = errors.New("looper: loop must run on the goroutine that prepared it")

	// ErrLooperTerminated is returned when Loop is called on a Looper that has
	// already run or was unprepared.
	ErrLooperTerminated = errors.New("looper: looper has already run")

	// ErrCalledOnLooper is returned by blocking helpers invoked on the looper's
	// own goroutine, where waiting would deadlock the loop, and by Loop or
	// Unprepare called from inside a running loop.
	ErrCalledOnLooper = errors.New("looper: call would block the looper's own goroutine")

	// ErrMessageInUse is returned when a pending message is released to the pool.
	ErrMessageInUse = errors.New("looper: message is still in use")
)
