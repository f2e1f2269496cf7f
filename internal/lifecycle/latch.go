// Package lifecycle provides the one-shot ready/loaded latches of a page and
// the event loop that delivers asynchronous completions.
package lifecycle

import "sync"

// Latch queues functions until it fires, then runs them in registration
// order. Functions registered after firing run immediately.
type Latch struct {
	mu    sync.Mutex
	fired bool
	queue []func()
}

// Do runs fn now if the latch has fired, otherwise queues it.
func (l *Latch) Do(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	if l.fired {
		l.mu.Unlock()
		fn()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// Fire sets the latch and drains the queue. Firing again is a no-op.
func (l *Latch) Fire() {
	l.mu.Lock()
	if l.fired {
		l.mu.Unlock()
		return
	}
	l.fired = true
	queue := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// Fired reports whether Fire has been called.
func (l *Latch) Fired() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fired
}

// Lifecycle pairs the ready and loaded latches of one document.
type Lifecycle struct {
	ready  Latch
	loaded Latch
}

func New() *Lifecycle {
	return &Lifecycle{}
}

// Ready runs fn once the document is ready.
func (lc *Lifecycle) Ready(fn func()) {
	lc.ready.Do(fn)
}

// Loaded runs fn once the page has loaded.
func (lc *Lifecycle) Loaded(fn func()) {
	lc.loaded.Do(fn)
}

func (lc *Lifecycle) FireReady() {
	lc.ready.Fire()
}

// FireLoaded fires the ready latch first when it has not fired yet.
func (lc *Lifecycle) FireLoaded() {
	lc.ready.Fire()
	lc.loaded.Fire()
}

func (lc *Lifecycle) IsReady() bool {
	return lc.ready.Fired()
}

func (lc *Lifecycle) IsLoaded() bool {
	return lc.loaded.Fired()
}
