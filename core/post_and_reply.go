package core

import "time"

// =============================================================================
// Post-and-reply
// =============================================================================

// PostAndReply runs task on h's looper, then posts reply to replyTo (h when
// replyTo is nil). If task panics the reply is not posted; the panic reaches
// h's looper like any other dispatch panic.
func (h *Handler) PostAndReply(task, reply func(), replyTo *Handler) error {
	return h.PostDelayedAndReply(task, 0, reply, replyTo)
}

// PostDelayedAndReply is PostAndReply with task delayed. The reply is posted
// as soon as task returns.
func (h *Handler) PostDelayedAndReply(task func(), delay time.Duration, reply func(), replyTo *Handler) error {
	if replyTo == nil {
		replyTo = h
	}
	return h.PostDelayed(func() {
		task()
		if reply != nil {
			// A quit reply looper logs and counts the rejection itself.
			_ = replyTo.Post(reply)
		}
	}, delay)
}

// PostAndReplyWithResult runs task on h's looper and hands its result to
// reply on replyTo's looper.
//
// Execution guarantee: the reply always observes the values written by task,
// since the reply is only posted after task returns.
//
// Example:
//
//	core.PostAndReplyWithResult(ioHandler,
//	    func() (int, error) { return readCount() },
//	    func(n int, err error) { showCount(n) },
//	    uiHandler,
//	)
func PostAndReplyWithResult[T any](h *Handler, task func() (T, error), reply func(T, error), replyTo *Handler) error {
	return PostDelayedAndReplyWithResult(h, task, 0, reply, replyTo)
}

// PostDelayedAndReplyWithResult is PostAndReplyWithResult with task delayed.
func PostDelayedAndReplyWithResult[T any](
	h *Handler,
	task func() (T, error),
	delay time.Duration,
	reply func(T, error),
	replyTo *Handler,
) error {
	// Captured by both closures; the reply runs strictly after the task.
	var result T
	var err error

	return h.PostDelayedAndReply(
		func() { result, err = task() },
		delay,
		func() { reply(result, err) },
		replyTo,
	)
}
