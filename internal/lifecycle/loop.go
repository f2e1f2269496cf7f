package lifecycle

import (
	"context"
	"sync"
)

// Loop is a single-consumer task queue. Any goroutine may Post; tasks run
// only on the goroutine calling RunPending, RunUntil or Run, one at a time.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. It never blocks.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunPending runs queued tasks, including tasks posted while running, and
// returns how many ran.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()

		if len(tasks) == 0 {
			return ran
		}
		for _, fn := range tasks {
			fn()
			ran++
		}
	}
}

// RunUntil runs tasks as they arrive until done is closed or ctx ends.
// A nil done runs until ctx ends.
func (l *Loop) RunUntil(ctx context.Context, done <-chan struct{}) error {
	for {
		l.RunPending()

		select {
		case <-done:
			l.RunPending()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run runs tasks until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	return l.RunUntil(ctx, nil)
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}
