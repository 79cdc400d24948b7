package replagent

import (
	"time"

	"github.com/kvmesh/kvclient/backoff"
	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/kvstore"
)

// advertiseTtlUpdates emits value-less ttl updates on each tracked
// key's own schedule - spec.md §4.3.
func (a *Agent) advertiseTtlUpdates() {
	now := time.Now()
	timeout := a.cfg.MaxTTLUpdateInterval

	for area, at := range a.areas {
		if len(at.ttlBackoffs) == 0 {
			continue
		}
		toSend := make(map[string]kvstore.Value)
		for key, tt := range at.ttlBackoffs {
			if !tt.backoff.CanTryNow(now) {
				if d := tt.backoff.TimeUntilRetry(now); d < timeout {
					timeout = d
				}
				continue
			}
			tt.backoff.ReportError(now)
			if d := tt.backoff.TimeUntilRetry(now); d < timeout {
				timeout = d
			}

			// A local write raced ahead - adopt it before refreshing.
			if persisted, ok := at.persisted[key]; ok && persisted.Version > tt.value.Version {
				tt.value.Version = persisted.Version
				tt.value.TTLVersion = persisted.TTLVersion
			}
			tt.value.TTLVersion++
			toSend[key] = kvstore.WithoutData(tt.value)
		}

		if len(toSend) == 0 {
			continue
		}
		if err := a.store.Set(a.ctx, area, toSend); err != nil {
			a.log.Warningf("ttl: Set failed for area %s: %v", area, err)
			continue
		}
		metricTTLRefreshCount.Add(len(toSend))
	}

	if timeout > a.cfg.MaxTTLUpdateInterval {
		timeout = a.cfg.MaxTTLUpdateInterval
	}
	a.ttlTimer.Reset(timeout)
}

func (a *Agent) onTTLTimer() {
	a.advertiseTtlUpdates()
}

// scheduleTtlUpdates installs or removes the ttl refresh schedule for
// (area, key) - spec.md §4.3. ttlMs == config.TTLInfinite erases any
// existing schedule.
func (a *Agent) scheduleTtlUpdates(area kvstore.AreaId, key string, version, ttlVersion uint32, ttlMs int64, advertiseImmediately bool) {
	at := a.areaOf(area)

	if ttlMs == config.TTLInfinite {
		delete(at.ttlBackoffs, key)
		return
	}

	val := kvstore.Value{
		Version:      version,
		OriginatorId: a.cfg.NodeId,
		TTLMs:        ttlMs,
		TTLVersion:   ttlVersion,
	}

	// Both initial and max sit near ttlMs/4, so refresh fires roughly
	// every quarter of the ttl window - ~4 refreshes per window; two
	// would suffice for durability, four gives margin for loss.
	quarter := time.Duration(ttlMs/4) * time.Millisecond
	bo := backoff.New(quarter, quarter+time.Millisecond)

	if !advertiseImmediately {
		bo.ReportError(time.Now())
	}

	at.ttlBackoffs[key] = &ttlEntry{value: val, backoff: bo}
	a.advertiseTtlUpdates()
}
