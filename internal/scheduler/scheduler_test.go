package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_RunsJobOnInterval(t *testing.T) {
	var runs atomic.Int64

	r := New()
	r.Add("tick", func() time.Duration { return 10 * time.Millisecond }, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunner_StopHaltsJobs(t *testing.T) {
	var runs atomic.Int64

	r := New()
	r.Add("tick", func() time.Duration { return 5 * time.Millisecond }, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(2 * time.Millisecond):
		}
	}

	r.Stop()
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("job ran %d more times after Stop", runs.Load()-after)
	}
}

func TestRunner_PanickingJobKeepsRunning(t *testing.T) {
	var runs atomic.Int64

	r := New()
	r.Add("flaky", func() time.Duration { return 5 * time.Millisecond }, func(ctx context.Context) error {
		runs.Add(1)
		panic("boom")
	})
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("panicking job ran %d times, want at least 2", runs.Load())
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestRunner_IntervalReevaluatedEachIteration(t *testing.T) {
	var interval atomic.Int64
	interval.Store(int64(5 * time.Millisecond))
	var runs atomic.Int64

	r := New()
	r.Add("tick", func() time.Duration { return time.Duration(interval.Load()) }, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(2 * time.Millisecond):
		}
	}

	// Stretch the interval; the next sleep picks it up without a restart
	interval.Store(int64(time.Hour))
	time.Sleep(20 * time.Millisecond)
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() > after+1 {
		t.Errorf("job kept firing after the interval was stretched")
	}
}

func TestRunner_StopBeforeStart(t *testing.T) {
	r := New()
	r.Stop() // must not panic
}
