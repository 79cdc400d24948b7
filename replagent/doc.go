// Package replagent implements the client-side replication agent: it
// persists (area, key) -> value bindings against a kvstore.Client,
// defends them against conflicting remote writes, refreshes their
// ttls, periodically sweeps for silent loss, and dispatches change
// notifications to local subscribers.
//
// All mutable state is owned by a single event loop goroutine
// (package eventloop); the methods on Agent documented as running "on
// the loop" must only be called from within a task submitted to that
// loop - see Agent.Start and eventloop.Loop.MustBeOnLoop.
package replagent
