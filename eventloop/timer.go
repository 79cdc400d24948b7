package eventloop

import "time"

// Timer reroutes a time.AfterFunc fire through the owning Loop's Submit,
// so the callback always executes on the loop goroutine and never
// overlaps with publication processing - per spec.md §5's "timer
// callbacks never overlap with publication processing".
type Timer struct {
	loop *Loop
	fn   func()
	t    *time.Timer
}

// NewTimer creates a Timer bound to loop. It does not arm itself; call
// Reset to schedule the first fire.
func NewTimer(loop *Loop, fn func()) *Timer {
	return &Timer{loop: loop, fn: fn}
}

// Reset (re)arms the timer to fire fn on the loop goroutine after d. Any
// previously scheduled fire is cancelled first.
func (rt *Timer) Reset(d time.Duration) {
	rt.Stop()
	rt.t = time.AfterFunc(d, func() {
		rt.loop.Submit(rt.fn)
	})
}

// Stop cancels any pending fire. Safe to call even if the timer was
// never armed.
func (rt *Timer) Stop() {
	if rt.t != nil {
		rt.t.Stop()
	}
}
