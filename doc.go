// Package looper provides per-goroutine cooperative message dispatch.
//
// A goroutine prepares a Looper, which owns a time-ordered MessageQueue, and
// then runs its loop. Handlers bound to that Looper may be used from any
// goroutine to send messages or post callbacks; every message is delivered on
// the Looper's goroutine, one at a time, in due-time order.
//
// # Quick Start
//
// Start a dedicated looper goroutine and talk to it through a Handler:
//
//	ht := looper.NewHandlerThread("io", nil)
//	ht.Start()
//	defer ht.QuitSafely()
//
//	h, _ := ht.NewHandler(ctx, looper.HandlerFunc(func(m *looper.Message) {
//		fmt.Println("got", m.What)
//	}))
//	h.SendEmptyMessage(1)
//	h.SendEmptyMessageDelayed(2, 100*time.Millisecond)
//
// Or turn the calling goroutine into a looper:
//
//	err := looper.Run(nil, func(l *looper.Looper) error {
//		h, err := looper.NewHandler(l, myHandler)
//		if err != nil {
//			return err
//		}
//		return h.SendEmptyMessage(start)
//	})
//
// # Key Concepts
//
// Message: a small record with a what code, two integer arguments, an opaque
// object and an optional Bundle. Messages come from a pool and go back to it
// after dispatch.
//
// Looper: binds a MessageQueue to the goroutine that prepared it. At most one
// per goroutine. Loop runs until Quit or QuitSafely.
//
// Handler: the sending and dispatching endpoint. Several handlers may share a
// Looper; each only removes or inspects its own pending messages.
//
// # Ordering
//
// Messages are delivered by due time; messages with the same due time keep
// their send order. A message is never delivered before its due time.
//
// For more details, see https://github.com/Swind/go-looper
package looper
