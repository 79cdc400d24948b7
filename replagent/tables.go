package replagent

import (
	"github.com/kvmesh/kvclient/backoff"
	"github.com/kvmesh/kvclient/kvstore"
)

// Callback is fired on a value change or expiry (value == nil signals
// expiry), per spec.md §6's Callback contract.
type Callback func(key string, value *kvstore.Value)

// ttlEntry pairs the value currently advertised on the ttl refresh
// schedule with the backoff tracker gating when it may fire next.
type ttlEntry struct {
	value   kvstore.Value
	backoff *backoff.Tracker
}

// areaTables holds the per-area state spec.md §3 describes: persisted
// bindings, ttl/advertise backoff state, the dirty set, and per-key
// callbacks. Tables are created lazily on first use and never
// destroyed while the agent lives.
//
// All fields are plain maps, not concurrent-safe ones: per spec.md §5
// this state is exclusively owned by the agent's event loop, so there
// is never a second writer to guard against.
type areaTables struct {
	persisted      map[string]kvstore.Value
	ttlBackoffs    map[string]*ttlEntry
	advertBackoffs map[string]*backoff.Tracker
	dirty          map[string]struct{}
	keyCallbacks   map[string]Callback
}

func newAreaTables() *areaTables {
	return &areaTables{
		persisted:      make(map[string]kvstore.Value),
		ttlBackoffs:    make(map[string]*ttlEntry),
		advertBackoffs: make(map[string]*backoff.Tracker),
		dirty:          make(map[string]struct{}),
		keyCallbacks:   make(map[string]Callback),
	}
}

// areaOf returns the tables for area, creating them if this is the
// first time the agent has seen it. Must be called on the loop.
func (a *Agent) areaOf(area kvstore.AreaId) *areaTables {
	at, ok := a.areas[area]
	if !ok {
		at = newAreaTables()
		a.areas[area] = at
	}
	return at
}
