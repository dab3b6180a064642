package scheduler

import (
	"context"
	"sync"
	"time"

	"Herald/internal/ports"
)

// HourlyScheduler fires the job at the top of every hour. The dispatcher
// decides per tick which windowed jobs actually run.
type HourlyScheduler struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*HourlyScheduler)(nil)

// NewHourlyScheduler builds a scheduler ticking once per hour.
func NewHourlyScheduler() *HourlyScheduler {
	return &HourlyScheduler{interval: time.Hour, now: time.Now}
}

// Start begins ticking until ctx is done or Stop is called.
func (h *HourlyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	h.stop, h.done = stop, done

	go func() {
		defer close(done)

		timer := time.NewTimer(h.untilNextTick())
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				job(h.now())
				timer.Reset(h.untilNextTick())
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticking goroutine and waits for an in-flight job to return.
func (h *HourlyScheduler) Stop(ctx context.Context) error {
	h.mu.Lock()
	stop, done := h.stop, h.done
	h.stop, h.done = nil, nil
	h.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HourlyScheduler) untilNextTick() time.Duration {
	now := h.now()
	next := now.Truncate(h.interval).Add(h.interval)
	return next.Sub(now)
}
