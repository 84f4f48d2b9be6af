// Package dispatch provides a serial background work queue.
//
// Renderer libraries are not guaranteed reentrant, so everything that
// touches one during initialization runs on a single worker goroutine,
// in submission order.
package dispatch

import "sync"

// Queue runs submitted functions one at a time on a dedicated
// goroutine. Async never blocks the caller.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	work   []func()
	closed bool
	done   chan struct{}
}

// New creates a queue and starts its worker goroutine.
func New() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Async enqueues fn to run on the worker goroutine. Functions run in
// submission order. Enqueueing on a closed queue drops fn.
func (q *Queue) Async(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.work = append(q.work, fn)
	q.cond.Signal()
}

// Sync enqueues fn and waits for it to finish. Calling Sync from the
// worker goroutine itself would deadlock; don't.
func (q *Queue) Sync(fn func()) {
	ran := make(chan struct{})
	q.Async(func() {
		defer close(ran)
		fn()
	})

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return
	}
	<-ran
}

// Close stops the worker after draining already-queued work and waits
// for it to exit. Further Async calls are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.work) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.work) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.work[0]
		q.work = q.work[1:]
		q.mu.Unlock()

		fn()
	}
}
