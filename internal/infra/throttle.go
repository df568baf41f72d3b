package infra

import (
	"context"
	"sync"
	"time"

	"marketpulse/internal/domain"
)

type throttleTask struct {
	run  func() error
	done chan error
}

// Throttle serializes outbound requests against a rolling per-window quota
// (e.g., 1200/min). A single dispatcher goroutine drains a FIFO queue in
// strict submission order; when the quota is exhausted it sleeps until the
// window boundary, resets the counter and resumes. The counter is only ever
// touched by the dispatcher, so it needs no lock.
//
// One Throttle is constructed per logical client and passed explicitly —
// there is no ambient instance.
type Throttle struct {
	limit  int
	window time.Duration

	queue chan *throttleTask
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewThrottle creates a throttle admitting limit tasks per window and starts
// its dispatcher.
func NewThrottle(limit int, window time.Duration) *Throttle {
	if limit <= 0 {
		limit = 1200
	}
	if window <= 0 {
		window = time.Minute
	}
	t := &Throttle{
		limit:  limit,
		window: window,
		queue:  make(chan *throttleTask, 256),
		stop:   make(chan struct{}),
	}
	t.wg.Add(1)
	go t.dispatch()
	return t
}

// Schedule enqueues task and blocks until it has run, returning the task's
// own error. A failing task never blocks the queue; the next task is
// dispatched regardless of this one's outcome.
//
// If ctx is cancelled after enqueueing, Schedule returns early but the task
// may still execute; its result is discarded. The same applies when the
// throttle is closed while the task is in flight.
func (t *Throttle) Schedule(ctx context.Context, task func() error) error {
	tt := &throttleTask{run: task, done: make(chan error, 1)}

	select {
	case <-t.stop:
		return domain.ErrThrottleClosed
	case <-ctx.Done():
		return ctx.Err()
	case t.queue <- tt:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-tt.done:
		return err
	case <-t.stop:
		// The enqueue above may have raced with Close: the buffered queue
		// accepts the task even though the dispatcher already exited, and
		// then nothing would ever complete it. The dispatcher's result, if
		// it did get there first, takes priority.
		select {
		case err := <-tt.done:
			return err
		default:
			return domain.ErrThrottleClosed
		}
	}
}

func (t *Throttle) dispatch() {
	defer t.wg.Done()

	var windowStart time.Time
	count := 0

	for {
		select {
		case <-t.stop:
			t.drain()
			return
		case task := <-t.queue:
			now := time.Now()
			if windowStart.IsZero() || now.Sub(windowStart) >= t.window {
				windowStart, count = now, 0
			}
			if count >= t.limit {
				GlobalMetrics.RecordThrottleWait()
				wait := t.window - now.Sub(windowStart)
				select {
				case <-t.stop:
					task.done <- domain.ErrThrottleClosed
					t.drain()
					return
				case <-time.After(wait):
				}
				windowStart, count = time.Now(), 0
			}
			// Count before running so the quota holds even if the task stalls.
			count++
			task.done <- task.run()
		}
	}
}

func (t *Throttle) drain() {
	for {
		select {
		case task := <-t.queue:
			task.done <- domain.ErrThrottleClosed
		default:
			return
		}
	}
}

// Close stops the dispatcher. Pending and later submissions fail with
// ErrThrottleClosed. Safe to call more than once.
func (t *Throttle) Close() {
	t.once.Do(func() { close(t.stop) })
	t.wg.Wait()
}
