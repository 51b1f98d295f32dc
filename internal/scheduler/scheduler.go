// Package scheduler runs named background jobs on an interval. The mapper
// cycle and the screenshot cleanup job run under it.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// stopTimeout bounds how long Stop waits for in-flight jobs. A job past
// the deadline is abandoned, not killed.
const stopTimeout = 10 * time.Second

type job struct {
	name string
	// every is re-evaluated before each sleep, so interval changes from a
	// config reload apply without a restart
	every func() time.Duration
	fn    func(context.Context) error
}

// Runner owns one goroutine per registered job. Register with Add before
// Start; Stop waits for in-flight runs with a bounded timeout.
type Runner struct {
	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates an empty runner.
func New() *Runner {
	return &Runner{}
}

// Add registers a job. The first run happens after one interval, not
// immediately. Panics if the runner has already started.
func (r *Runner) Add(name string, every func() time.Duration, fn func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		panic("scheduler: Add after Start")
	}
	r.jobs = append(r.jobs, job{name: name, every: every, fn: fn})
}

// Start launches every registered job. The jobs stop when ctx is done or
// Stop is called, whichever comes first.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, j)
	}
	log.Printf("[sched] started %d job(s)", len(r.jobs))
}

// Stop cancels all jobs and waits up to stopTimeout for in-flight runs to
// finish. Safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		log.Printf("[sched] stop timed out waiting for jobs")
	}
}

func (r *Runner) loop(ctx context.Context, j job) {
	defer r.wg.Done()

	timer := time.NewTimer(j.every())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		r.invoke(ctx, j)
		timer.Reset(j.every())
	}
}

// invoke runs one job iteration. A panic or error is logged and the loop
// continues; a broken job must not take the process down.
func (r *Runner) invoke(ctx context.Context, j job) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("[sched] job %s panicked: %v", j.name, v)
		}
	}()
	if err := j.fn(ctx); err != nil {
		log.Printf("[sched] job %s: %v", j.name, err)
	}
}
