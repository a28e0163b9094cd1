package looper_test

import (
	"errors"
	"testing"
	"time"

	looper "github.com/Swind/go-looper"
)

func TestRun_DispatchesUntilQuit(t *testing.T) {
	got := make(chan []int, 1)

	errCh := make(chan error, 1)
	go func() {
		var seen []int
		errCh <- looper.Run(nil, func(l *looper.Looper) error {
			h, err := looper.NewHandler(l, looper.HandlerFunc(func(m *looper.Message) {
				seen = append(seen, m.What)
				if m.What == 3 {
					got <- seen
					l.Quit()
				}
			}))
			if err != nil {
				return err
			}
			_ = h.SendEmptyMessageDelayed(3, 20*time.Millisecond)
			_ = h.SendEmptyMessage(1)
			return h.SendEmptyMessage(2)
		})
	}()

	select {
	case seen := <-got:
		if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
			t.Errorf("delivery order = %v, want [1 2 3]", seen)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run never delivered the delayed message")
	}
	if err := <-errCh; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

// TestRun_SetupError verifies a failed setup never dispatches
// Given: A setup that sends a message and then fails
// When: Run returns
// Then: The error is returned, the message was never handled and the
// goroutine is free to prepare again
func TestRun_SetupError(t *testing.T) {
	boom := errors.New("setup failed")

	type result struct {
		err       error
		handled   bool
		leftover  bool
		reprepare error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		res.err = looper.Run(nil, func(l *looper.Looper) error {
			h, err := looper.NewHandler(l, looper.HandlerFunc(func(*looper.Message) {
				res.handled = true
			}))
			if err != nil {
				return err
			}
			if err := h.SendEmptyMessage(1); err != nil {
				return err
			}
			return boom
		})
		res.leftover = looper.MyLooper() != nil
		l, err := looper.Prepare()
		res.reprepare = err
		if err == nil {
			_ = l.Unprepare()
		}
		done <- res
	}()

	res := <-done
	if !errors.Is(res.err, boom) {
		t.Errorf("Run err = %v, want setup error", res.err)
	}
	if res.handled {
		t.Error("message sent during a failed setup was dispatched")
	}
	if res.leftover {
		t.Error("goroutine still has a looper after a failed setup")
	}
	if res.reprepare != nil {
		t.Errorf("Prepare after failed Run: %v", res.reprepare)
	}
}

func TestRun_NestedPrepare(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		done <- looper.Run(nil, func(l *looper.Looper) error {
			defer l.Quit()
			_, err := looper.Prepare()
			return err
		})
	}()

	if err := <-done; !errors.Is(err, looper.ErrAlreadyPrepared) {
		t.Errorf("Run err = %v, want ErrAlreadyPrepared", err)
	}
}

// TestBackgroundThread verifies the process-wide background looper lifecycle
func TestBackgroundThread(t *testing.T) {
	looper.InitBackgroundThread(nil)
	looper.InitBackgroundThread(nil)

	l := looper.BackgroundLooper()
	if l.Name() != "background" {
		t.Errorf("background looper name = %q", l.Name())
	}

	done := make(chan bool, 1)
	h := looper.NewBackgroundHandler(nil)
	if err := h.Post(func() { done <- l.IsCurrentGoroutine() }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if !<-done {
		t.Error("callback did not run on the background looper")
	}

	if err := looper.ShutdownBackgroundThread(); err != nil {
		t.Fatalf("ShutdownBackgroundThread failed: %v", err)
	}
	if err := looper.ShutdownBackgroundThread(); err != nil {
		t.Fatalf("second ShutdownBackgroundThread failed: %v", err)
	}
	if err := h.SendEmptyMessage(1); !errors.Is(err, looper.ErrQueueClosed) {
		t.Errorf("send after shutdown err = %v, want ErrQueueClosed", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("BackgroundLooper after shutdown did not panic")
		}
	}()
	looper.BackgroundLooper()
}
