package replagent

import (
	"github.com/kvmesh/kvclient/backoff"
	"github.com/kvmesh/kvclient/kvstore"
)

// Submit is the cross-thread entrypoint spec.md §5 requires: callers
// on a goroutine other than the loop's must post mutating work through
// here rather than calling the on-loop methods below directly.
func (a *Agent) Submit(fn func()) {
	a.loop.Submit(fn)
}

// PersistKey upserts (area, key) into the persisted table, seeding
// versioning from the store on first persistence of an existing key
// and otherwise from the cached entry - spec.md §4.5. It returns false
// when the call is a no-op: value and ttl identical to the cached
// persisted entry.
func (a *Agent) PersistKey(area kvstore.AreaId, key string, value []byte, ttlMs int64) (bool, error) {
	a.loop.MustBeOnLoop()
	at := a.areaOf(area)

	val, existed := at.persisted[key]
	if !existed {
		pub, err := a.store.Get(a.ctx, area, []string{key})
		if err != nil {
			return false, err
		}
		if fetched, ok := pub.KeyVals[key]; ok {
			val = fetched
		} else {
			val = kvstore.Value{OriginatorId: a.cfg.NodeId, Data: &value, TTLMs: ttlMs}
		}
	} else if dataEqual(val.Data, &value) && val.TTLMs == ttlMs {
		return false, nil
	} else if tt, ok := at.ttlBackoffs[key]; ok {
		val.TTLVersion = tt.value.TTLVersion
	}

	valueChange := false
	switch {
	case val.Version == 0:
		val.Version = 1
		valueChange = true
	case val.OriginatorId != a.cfg.NodeId || !dataEqual(val.Data, &value):
		val.Version++
		val.TTLVersion = 0
		val.Data = &value
		val.OriginatorId = a.cfg.NodeId
		valueChange = true
	}

	hasTtlChanged := ttlMs != val.TTLMs
	val.TTLMs = ttlMs
	at.persisted[key] = val
	at.advertBackoffs[key] = backoff.New(a.cfg.InitialBackoff, a.cfg.MaxBackoff)

	if valueChange {
		a.safeCall(at.keyCallbacks[key], key, &val)
		at.dirty[key] = struct{}{}
	}

	a.advertisePendingKeys()
	a.scheduleTtlUpdates(area, key, val.Version, val.TTLVersion, ttlMs, hasTtlChanged && !valueChange)

	return true, nil
}

// PersistKeys is a throttled batch entrypoint: it persists every
// binding in values under a single advertise pass, avoiding the O(n)
// fan-out of per-key advertisePendingKeys calls that n separate
// PersistKey calls would incur. scheduleTtlUpdates is still called
// once per key. Grounded on the donor prefix-manager's AsyncThrottle-batched
// advertise/withdraw pattern (original_source/openr/prefix-manager/
// PrefixManager.h).
func (a *Agent) PersistKeys(area kvstore.AreaId, values map[string][]byte, ttlMs int64) (map[string]bool, error) {
	a.loop.MustBeOnLoop()
	at := a.areaOf(area)

	missing := make([]string, 0, len(values))
	for key := range values {
		if _, ok := at.persisted[key]; !ok {
			missing = append(missing, key)
		}
	}

	fetched := make(map[string]kvstore.Value)
	if len(missing) > 0 {
		pub, err := a.store.Get(a.ctx, area, missing)
		if err != nil {
			return nil, err
		}
		fetched = pub.KeyVals
	}

	changed := make(map[string]bool, len(values))
	for key, value := range values {
		val, existed := at.persisted[key]
		if !existed {
			if f, ok := fetched[key]; ok {
				val = f
			} else {
				val = kvstore.Value{OriginatorId: a.cfg.NodeId, Data: &value, TTLMs: ttlMs}
			}
		} else if dataEqual(val.Data, &value) && val.TTLMs == ttlMs {
			changed[key] = false
			continue
		} else if tt, ok := at.ttlBackoffs[key]; ok {
			val.TTLVersion = tt.value.TTLVersion
		}

		valueChange := false
		switch {
		case val.Version == 0:
			val.Version = 1
			valueChange = true
		case val.OriginatorId != a.cfg.NodeId || !dataEqual(val.Data, &value):
			val.Version++
			val.TTLVersion = 0
			val.Data = &value
			val.OriginatorId = a.cfg.NodeId
			valueChange = true
		}

		hasTtlChanged := ttlMs != val.TTLMs
		val.TTLMs = ttlMs
		at.persisted[key] = val
		at.advertBackoffs[key] = backoff.New(a.cfg.InitialBackoff, a.cfg.MaxBackoff)

		if valueChange {
			a.safeCall(at.keyCallbacks[key], key, &val)
			at.dirty[key] = struct{}{}
		}
		a.scheduleTtlUpdates(area, key, val.Version, val.TTLVersion, ttlMs, hasTtlChanged && !valueChange)
		changed[key] = valueChange
	}

	a.advertisePendingKeys()
	return changed, nil
}

// SetKey is a one-shot write that bypasses persistence tracking:
// nothing is added to persisted, so the sweep and conflict-defence
// logic never look at this key again after the write completes. If
// version is 0 the current store version plus one (or 1, if absent) is
// used; otherwise version is sent as given - spec.md §4.5.
func (a *Agent) SetKey(area kvstore.AreaId, key string, value []byte, version uint32, ttlMs int64) error {
	a.loop.MustBeOnLoop()

	val := kvstore.Value{
		Version:      version,
		OriginatorId: a.cfg.NodeId,
		Data:         &value,
		TTLMs:        ttlMs,
	}
	if version == 0 {
		pub, err := a.store.Get(a.ctx, area, []string{key})
		if err != nil {
			return err
		}
		if cur, ok := pub.KeyVals[key]; ok {
			val.Version = cur.Version + 1
		} else {
			val.Version = 1
		}
	}

	if err := a.store.Set(a.ctx, area, map[string]kvstore.Value{key: val}); err != nil {
		return err
	}
	a.scheduleTtlUpdates(area, key, val.Version, val.TTLVersion, ttlMs, false)
	return nil
}

// UnsetKey erases all local tracking for (area, key): persisted,
// advertise backoff, ttl backoff, and dirty membership. It does not
// publish a tombstone - the value simply stops being defended and
// refreshed - spec.md §4.5, property P6.
func (a *Agent) UnsetKey(area kvstore.AreaId, key string) {
	a.loop.MustBeOnLoop()
	at := a.areaOf(area)
	delete(at.persisted, key)
	delete(at.advertBackoffs, key)
	delete(at.ttlBackoffs, key)
	delete(at.dirty, key)
}

// ClearKey releases ownership of a key cleanly: it unsets local
// tracking, then, if the key still exists in the store, publishes a
// version-bumped replacement carrying newValue with a fresh
// ttlVersion of 0 - spec.md §4.5.
func (a *Agent) ClearKey(area kvstore.AreaId, key string, newValue []byte, ttlMs int64) error {
	a.loop.MustBeOnLoop()
	a.UnsetKey(area, key)

	pub, err := a.store.Get(a.ctx, area, []string{key})
	if err != nil {
		return err
	}
	cur, ok := pub.KeyVals[key]
	if !ok {
		return nil
	}
	val := kvstore.Value{
		Version:      cur.Version + 1,
		OriginatorId: a.cfg.NodeId,
		Data:         &newValue,
		TTLMs:        ttlMs,
	}
	return a.store.Set(a.ctx, area, map[string]kvstore.Value{key: val})
}

// GetKey is a synchronous read from the store, bypassing local
// tracking entirely - spec.md §4.5.
func (a *Agent) GetKey(area kvstore.AreaId, key string) (kvstore.Value, bool, error) {
	pub, err := a.store.Get(a.ctx, area, []string{key})
	if err != nil {
		return kvstore.Value{}, false, err
	}
	val, ok := pub.KeyVals[key]
	return val, ok, nil
}

// DumpAllWithPrefix is a snapshot read of area filtered by prefix -
// spec.md §4.5.
func (a *Agent) DumpAllWithPrefix(area kvstore.AreaId, prefix string) (kvstore.Publication, error) {
	pubs, err := a.store.Dump(a.ctx, []kvstore.AreaId{area}, kvstore.DumpParams{Prefix: prefix})
	if err != nil {
		return kvstore.Publication{}, err
	}
	if len(pubs) == 0 {
		return kvstore.Publication{Area: area}, nil
	}
	return pubs[0], nil
}

// SubscribeKey installs a per-key callback for (area, key), replacing
// any previous one. When fetch is true it also returns the key's
// current store value, if any - spec.md §4.5.
func (a *Agent) SubscribeKey(area kvstore.AreaId, key string, cb Callback, fetch bool) (*kvstore.Value, error) {
	a.loop.MustBeOnLoop()
	at := a.areaOf(area)
	at.keyCallbacks[key] = cb

	if !fetch {
		return nil, nil
	}
	val, ok, err := a.GetKey(area, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &val, nil
}

// SubscribeKeyFilter installs the single process-wide prefix/
// originator filter callback, replacing any previous one - spec.md
// §4.5.
func (a *Agent) SubscribeKeyFilter(filter kvstore.Filters, cb Callback) {
	a.loop.MustBeOnLoop()
	a.prefixFilter = filter
	a.prefixCallback = cb
	a.hasPrefixCallback = true
}

// UnsubscribeKeyFilter removes the prefix/originator filter callback
// installed by SubscribeKeyFilter, if any.
func (a *Agent) UnsubscribeKeyFilter() {
	a.loop.MustBeOnLoop()
	a.hasPrefixCallback = false
	a.prefixCallback = nil
	a.prefixFilter = kvstore.Filters{}
}

// SetKvCallback installs or replaces the global catch-all callback,
// fired for every key change regardless of persistence or filter
// state - spec.md §4.5.
func (a *Agent) SetKvCallback(cb Callback) {
	a.loop.MustBeOnLoop()
	a.globalCallback = cb
}
