package looper

import (
	"github.com/Swind/go-looper/bundle"
	"github.com/Swind/go-looper/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the looper package for most use cases.

// Message is the unit of work delivered to a Handler
type Message = core.Message

// MessageQueue is a Looper's time-ordered queue
type MessageQueue = core.MessageQueue

// MessagePool is an arena of reusable messages
type MessagePool = core.MessagePool

// Looper runs the message loop of one goroutine
type Looper = core.Looper

// LooperConfig configures logging, metrics and pooling of a Looper
type LooperConfig = core.LooperConfig

// Handler sends messages to, and handles messages from, one Looper
type Handler = core.Handler

// MessageHandler is the handling logic a Handler delivers to
type MessageHandler = core.MessageHandler

// HandlerFunc adapts a function to MessageHandler
type HandlerFunc = core.HandlerFunc

// HandlerThread owns a goroutine running a Looper
type HandlerThread = core.HandlerThread

// RepeatingHandle controls the lifecycle of a repeating callback
type RepeatingHandle = core.RepeatingHandle

// Bundle is the ordered key-value payload carried by a Message
type Bundle = bundle.Bundle

// Errors
var (
	ErrAlreadyPrepared    = core.ErrAlreadyPrepared
	ErrNoLooper           = core.ErrNoLooper
	ErrAlreadyPending     = core.ErrAlreadyPending
	ErrQueueClosed        = core.ErrQueueClosed
	ErrForeignTarget      = core.ErrForeignTarget
	ErrNotLooperGoroutine = core.ErrNotLooperGoroutine
	ErrLooperTerminated   = core.ErrLooperTerminated
	ErrCalledOnLooper     = core.ErrCalledOnLooper
	ErrMessageInUse       = core.ErrMessageInUse
)

// Constructors and goroutine-local accessors
var (
	Prepare           = core.Prepare
	PrepareWithConfig = core.PrepareWithConfig
	PrepareMainLooper = core.PrepareMainLooper
	MainLooper        = core.MainLooper
	MyLooper          = core.MyLooper
	MyQueue           = core.MyQueue
	NewHandler        = core.NewHandler
	NewNamedHandler   = core.NewNamedHandler
	NewHandlerThread  = core.NewHandlerThread
	ObtainMessage     = core.ObtainMessage
	NewMessagePool    = core.NewMessagePool
	NewBundle         = bundle.New
)

// PostAndReplyWithResult runs task on h's looper and hands its result to
// reply on replyTo's looper.
func PostAndReplyWithResult[T any](h *Handler, task func() (T, error), reply func(T, error), replyTo *Handler) error {
	return core.PostAndReplyWithResult(h, task, reply, replyTo)
}
