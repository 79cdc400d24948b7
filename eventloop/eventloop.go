// Package eventloop implements the single-goroutine cooperative
// concurrency model spec.md §5 requires: one event loop owns all
// mutable state, timers and an inbound reader post work onto it, and
// callbacks fire in the order their triggering work was submitted.
//
// The donor repository achieves a comparable shape inside maple's
// per-shard garbage collector, which drains a single goroutine via
// select over an events channel and a time.Timer
// (lib/db/engines/maple/maple.go, garbageCollector). Loop generalizes
// that pattern into a reusable primitive instead of a one-off GC loop.
package eventloop

import (
	"sync/atomic"
)

// Loop is a single-goroutine cooperative task queue. Call Run once in a
// dedicated goroutine; submit work with Submit/TrySubmit from any
// goroutine.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	onLoop atomic.Bool
}

// New creates a Loop with the given task queue depth.
func New(queueDepth int) *Loop {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Loop{
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}
}

// Run drains the task queue until Stop is called. It blocks; callers
// run it in its own goroutine.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			l.onLoop.Store(true)
			fn()
			l.onLoop.Store(false)
		case <-l.done:
			return
		}
	}
}

// Stop requests Run to return. The queue is not drained: tasks still
// queued when Run observes the stop may never run. Stop does not wait
// for Run to actually return; callers needing that should join the
// goroutine they started Run in themselves.
func (l *Loop) Stop() {
	close(l.done)
}

// Submit enqueues fn to run on the loop goroutine, blocking if the
// queue is full.
func (l *Loop) Submit(fn func()) {
	l.tasks <- fn
}

// TrySubmit enqueues fn without blocking. It returns false if the queue
// is full.
func (l *Loop) TrySubmit(fn func()) bool {
	select {
	case l.tasks <- fn:
		return true
	default:
		return false
	}
}

// OnLoopThread reports whether the calling goroutine is currently
// executing a task dispatched by this Loop's Run. This is a best-effort
// approximation of true thread-identity checks (the original's
// MustBeOnLoop precondition): it is accurate for the common case of a
// single Run goroutine, but does not detect a caller that happens to
// run concurrently with, yet independently of, the loop.
func (l *Loop) OnLoopThread() bool {
	return l.onLoop.Load()
}

// MustBeOnLoop panics if called from outside the loop goroutine. Used
// to enforce spec.md §4.5's "all mutating operations must execute on
// the event-loop thread" precondition - a programmer error, not a
// runtime-recoverable one, per spec.md §7.4.
func (l *Loop) MustBeOnLoop() {
	if !l.OnLoopThread() {
		panic("eventloop: called off the loop thread")
	}
}
