package replagent

import (
	"bytes"

	"github.com/kvmesh/kvclient/kvstore"
)

// processPublication implements the publication processor, spec.md
// §4.1. It must run on the loop - it is only ever invoked from a task
// submitted by runInboundReader or the sweep engine.
func (a *Agent) processPublication(pub kvstore.Publication) {
	at := a.areaOf(pub.Area)

	for key, rcvd := range pub.KeyVals {
		a.processKey(at, pub.Area, key, rcvd)
	}

	a.advertisePendingKeys()

	for _, key := range pub.ExpiredKeys {
		a.safeCall(a.globalCallback, key, nil)
		a.safeCall(at.keyCallbacks[key], key, nil)
	}
}

// processKey implements the per-key behavior of spec.md §4.1, steps
// 1-6.
func (a *Agent) processKey(at *areaTables, area kvstore.AreaId, key string, rcvd kvstore.Value) {
	// Step 1: ttl-only updates are not processed here; ttl resync for
	// tracked-but-unpersisted keys only fires on publications that do
	// carry a value (see step 4 below and the donor's
	// processPublication, which applies the same gate before reaching
	// the ttl-backoff reconciliation block).
	if !rcvd.HasData() {
		return
	}

	// Step 2
	a.safeCall(a.globalCallback, key, &rcvd)

	// Step 3
	cur, inPersisted := at.persisted[key]
	cb := at.keyCallbacks[key]
	tt := at.ttlBackoffs[key]

	// Step 4: TTL-only reconciliation for non-persisted tracked keys.
	if tt != nil && !inPersisted {
		if versionOriginatorBeats(rcvd, tt.value) {
			delete(at.ttlBackoffs, key)
			tt = nil
		} else if rcvd.Version == tt.value.Version &&
			rcvd.OriginatorId == tt.value.OriginatorId &&
			rcvd.TTLVersion > tt.value.TTLVersion {
			tt.value.TTLVersion = rcvd.TTLVersion + 1
		}
	}

	// Step 5
	if !inPersisted {
		a.safeCall(cb, key, &rcvd)
		if a.hasPrefixCallback && a.prefixFilter.KeyMatch(key, rcvd) {
			a.safeCall(a.prefixCallback, key, &rcvd)
		}
		return
	}

	// Step 6
	if cur.Version > rcvd.Version {
		return // stale echo
	}

	valueChange := false
	if cur.Version < rcvd.Version {
		cur.OriginatorId = a.cfg.NodeId
		cur.Version = rcvd.Version + 1
		cur.TTLVersion = 0
		valueChange = true
	}
	if !valueChange && rcvd.OriginatorId != a.cfg.NodeId {
		cur.OriginatorId = a.cfg.NodeId
		cur.Version++
		cur.TTLVersion = 0
		valueChange = true
	}
	if !valueChange && !dataEqual(cur.Data, rcvd.Data) {
		cur.OriginatorId = a.cfg.NodeId
		cur.Version++
		cur.TTLVersion = 0
		valueChange = true
	}

	if tt != nil {
		cur.TTLVersion = tt.value.TTLVersion
	}
	if cur.TTLVersion < rcvd.TTLVersion {
		cur.TTLVersion = rcvd.TTLVersion
		if tt != nil {
			tt.value.TTLVersion = rcvd.TTLVersion
		}
	}

	at.persisted[key] = cur

	if valueChange {
		a.safeCall(cb, key, &cur)
		at.dirty[key] = struct{}{}
	}
}

// versionOriginatorBeats compares only version then originatorId,
// ignoring ttlVersion - this is the "key lost" check the ttl-only
// reconciliation in step 4 uses, distinct from the full conflict order
// kvstore.Value.Beats applies elsewhere.
func versionOriginatorBeats(a, b kvstore.Value) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	return a.OriginatorId > b.OriginatorId
}

func dataEqual(a, b *[]byte) bool {
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(*a, *b)
}
