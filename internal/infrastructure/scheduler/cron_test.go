package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestUntilNextTickAlignsToInterval(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, time.October, 23, 9, 45, 0, 0, time.UTC)
	h := &HourlyScheduler{interval: time.Hour, now: func() time.Time { return fixed }}

	if got := h.untilNextTick(); got != 15*time.Minute {
		t.Fatalf("expected 15m, got %v", got)
	}
}

func TestStartRunsJobAndStops(t *testing.T) {
	t.Parallel()

	h := &HourlyScheduler{interval: 10 * time.Millisecond, now: time.Now}
	fired := make(chan time.Time, 8)

	if err := h.Start(context.Background(), func(ts time.Time) { fired <- ts }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("job never fired")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
}
