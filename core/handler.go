package core

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"time"
)

// MessageHandler is the handling logic a Handler delivers messages to.
// HandleMessage always runs on the Handler's looper goroutine.
type MessageHandler interface {
	HandleMessage(msg *Message)
}

// HandlerFunc adapts a plain function to MessageHandler.
type HandlerFunc func(msg *Message)

// HandleMessage calls f(msg).
func (f HandlerFunc) HandleMessage(msg *Message) { f(msg) }

type noopHandler struct{}

func (noopHandler) HandleMessage(*Message) {}

// Handler sends messages to a Looper's queue addressed to itself and
// dispatches them to its MessageHandler when the looper delivers them.
//
// Send and post methods may be called from any goroutine. All handling for a
// Handler happens on its looper's goroutine, in delivery order, never
// concurrently with itself. Several handlers may share one looper.
type Handler struct {
	looper   *Looper
	queue    *MessageQueue
	strategy MessageHandler
	name     string
}

// NewHandler binds h to looper, or to the calling goroutine's looper when
// looper is nil. A nil h handles every message as a no-op. It fails with
// ErrNoLooper when no looper is available.
func NewHandler(looper *Looper, h MessageHandler) (*Handler, error) {
	if looper == nil {
		looper = MyLooper()
		if looper == nil {
			return nil, ErrNoLooper
		}
	}
	if h == nil {
		h = noopHandler{}
	}
	return &Handler{
		looper:   looper,
		queue:    looper.queue,
		strategy: h,
		name:     resolveHandlerName(h),
	}, nil
}

// NewNamedHandler is NewHandler with an explicit name for logs and history.
func NewNamedHandler(looper *Looper, name string, h MessageHandler) (*Handler, error) {
	handler, err := NewHandler(looper, h)
	if err != nil {
		return nil, err
	}
	if name != "" {
		handler.name = name
	}
	return handler, nil
}

func resolveHandlerName(h MessageHandler) string {
	if fn, ok := h.(HandlerFunc); ok {
		if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil && f.Name() != "" {
			return f.Name()
		}
		return "anonymous"
	}
	return fmt.Sprintf("%T", h)
}

// Name returns the handler's name.
func (h *Handler) Name() string { return h.name }

// Looper returns the looper the handler is bound to.
func (h *Handler) Looper() *Looper { return h.looper }

// DispatchMessage runs msg's callback if it has one, otherwise the handler's
// MessageHandler. The looper calls it on its own goroutine.
func (h *Handler) DispatchMessage(msg *Message) {
	if msg.callback != nil {
		msg.callback()
		return
	}
	h.strategy.HandleMessage(msg)
}

// =============================================================================
// Obtaining messages
// =============================================================================

// ObtainMessage draws a blank message from the looper's pool.
//
// The message is provisionally targeted at h so that h's own queue accepts it
// through MessageQueue.Enqueue. Every Send call replaces the target with the
// sending handler, so a message obtained here may be sent through any handler.
func (h *Handler) ObtainMessage() *Message {
	m := h.looper.cfg.Pool.Acquire()
	m.target = h
	return m
}

// ObtainMessageWhat is ObtainMessage with What set.
func (h *Handler) ObtainMessageWhat(what int) *Message {
	m := h.ObtainMessage()
	m.What = what
	return m
}

// ObtainMessageArgs is ObtainMessage with every application field set.
func (h *Handler) ObtainMessageArgs(what, arg1, arg2 int, obj any) *Message {
	m := h.ObtainMessage()
	m.What = what
	m.Arg1 = arg1
	m.Arg2 = arg2
	m.Obj = obj
	return m
}

// =============================================================================
// Posting callbacks
// =============================================================================

// Post runs fn on the looper as soon as possible.
func (h *Handler) Post(fn func()) error {
	return h.PostDelayed(fn, 0)
}

// PostDelayed runs fn on the looper after delay. A non-positive delay means
// as soon as possible.
func (h *Handler) PostDelayed(fn func(), delay time.Duration) error {
	return h.PostAtTime(fn, dueAfter(delay))
}

// PostAtTime runs fn on the looper no earlier than when.
func (h *Handler) PostAtTime(fn func(), when time.Time) error {
	m := h.callbackMessage(fn)
	return h.SendMessageAtTime(m, when)
}

// PostAtFrontOfQueue runs fn before every timed message already queued.
func (h *Handler) PostAtFrontOfQueue(fn func()) error {
	return h.SendMessageAtFrontOfQueue(h.callbackMessage(fn))
}

func (h *Handler) callbackMessage(fn func()) *Message {
	if fn == nil {
		panic("looper: post of nil callback")
	}
	m := h.ObtainMessage()
	m.callback = fn
	return m
}

// =============================================================================
// Sending messages
// =============================================================================

// SendEmptyMessage sends a message carrying only what.
func (h *Handler) SendEmptyMessage(what int) error {
	return h.SendEmptyMessageDelayed(what, 0)
}

// SendEmptyMessageDelayed sends a message carrying only what after delay.
func (h *Handler) SendEmptyMessageDelayed(what int, delay time.Duration) error {
	return h.SendMessageDelayed(h.ObtainMessageWhat(what), delay)
}

// Send sends a message with every application field set.
func (h *Handler) Send(what, arg1, arg2 int, obj any) error {
	return h.SendDelayed(what, arg1, arg2, obj, 0)
}

// SendDelayed is Send with a delay.
func (h *Handler) SendDelayed(what, arg1, arg2 int, obj any, delay time.Duration) error {
	return h.SendMessageDelayed(h.ObtainMessageArgs(what, arg1, arg2, obj), delay)
}

// SendMessage enqueues msg for delivery as soon as possible.
func (h *Handler) SendMessage(msg *Message) error {
	return h.SendMessageDelayed(msg, 0)
}

// SendMessageDelayed enqueues msg for delivery after delay.
func (h *Handler) SendMessageDelayed(msg *Message, delay time.Duration) error {
	return h.SendMessageAtTime(msg, dueAfter(delay))
}

// SendMessageAtFrontOfQueue enqueues msg ahead of every timed message.
// Front-of-queue messages keep their send order among themselves.
func (h *Handler) SendMessageAtFrontOfQueue(msg *Message) error {
	return h.SendMessageAtTime(msg, time.Time{})
}

// SendMessageAtTime enqueues msg, targeted at h, for delivery no earlier than
// when.
//
// It fails with ErrAlreadyPending if msg is still queued, and with
// ErrQueueClosed once the looper has quit, in which case msg is released.
func (h *Handler) SendMessageAtTime(msg *Message, when time.Time) error {
	err := h.queue.enqueue(msg, h, when)
	if err != nil && errors.Is(err, ErrQueueClosed) {
		h.looper.rejectedSend(h, msg)
	}
	return err
}

func dueAfter(delay time.Duration) time.Time {
	now := time.Now()
	if delay <= 0 {
		return now
	}
	return now.Add(delay)
}

// =============================================================================
// Removing messages
// =============================================================================

// RemoveMessages removes pending messages with the given What sent through h.
func (h *Handler) RemoveMessages(what int) int {
	return h.queue.RemoveMessages(h, what)
}

// RemoveMessagesWithObj removes pending messages with the given What whose Obj
// equals obj.
func (h *Handler) RemoveMessagesWithObj(what int, obj any) int {
	return h.queue.RemoveMessagesWithObj(h, what, obj)
}

// RemoveAllMessages removes every pending message and callback sent through h.
func (h *Handler) RemoveAllMessages() int {
	return h.queue.RemoveAllMessages(h)
}

// HasMessages reports whether a message with the given What is pending for h.
func (h *Handler) HasMessages(what int) bool {
	return h.queue.HasMessages(h, what)
}

func (h *Handler) String() string {
	return fmt.Sprintf("Handler (%s) {looper=%s}", h.name, h.looper.Name())
}
