package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSweepOnceCollectsCounts(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	var seen atomic.Value
	w := &sweepWorker{
		logger: zerolog.Nop(),
		now:    func() time.Time { return fixed },
		sweeps: map[string]sweepFunc{
			"tokens": func(_ context.Context, now time.Time) (int64, error) {
				seen.Store(now)
				return 3, nil
			},
			"rate_limits": func(context.Context, time.Time) (int64, error) {
				return 0, errors.New("db down")
			},
		},
	}

	got := w.sweepOnce(context.Background())
	if got["tokens"] != 3 {
		t.Fatalf("tokens = %d, want 3", got["tokens"])
	}
	if got["rate_limits"] != 0 {
		t.Fatalf("failed sweep should report 0, got %d", got["rate_limits"])
	}
	now, _ := seen.Load().(time.Time)
	if now.Location() != time.UTC || !now.Equal(fixed) {
		t.Fatalf("sweep clock = %v, want %v in UTC", now, fixed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int64
	w := &sweepWorker{
		logger:   zerolog.Nop(),
		interval: time.Millisecond,
		now:      time.Now,
		sweeps: map[string]sweepFunc{
			"tokens": func(context.Context, time.Time) (int64, error) {
				calls.Add(1)
				return 0, nil
			},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("worker did not tick")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}
