package replagent

import (
	"time"

	"github.com/kvmesh/kvclient/backoff"
	"github.com/kvmesh/kvclient/kvstore"
)

// advertisePendingKeys drains the dirty set into outbound
// setKvStoreKeyVals calls, respecting per-key advertise backoffs. It
// is idempotent and safe to call repeatedly - spec.md §4.2.
func (a *Agent) advertisePendingKeys() {
	now := time.Now()
	timeout := a.cfg.MaxBackoff

	for area, at := range a.areas {
		if len(at.dirty) == 0 {
			continue
		}

		toSend := make(map[string]kvstore.Value)
		for key := range at.dirty {
			bo, ok := at.advertBackoffs[key]
			if !ok {
				bo = backoff.New(a.cfg.InitialBackoff, a.cfg.MaxBackoff)
				at.advertBackoffs[key] = bo
			}
			if !bo.CanTryNow(now) {
				if d := bo.TimeUntilRetry(now); d < timeout {
					timeout = d
				}
				continue
			}
			// Each attempt incurs a larger next wait - this is a
			// deliberate rate-limiter, not a failure signal.
			bo.ReportError(now)
			if d := bo.TimeUntilRetry(now); d < timeout {
				timeout = d
			}
			toSend[key] = at.persisted[key]
		}

		if len(toSend) == 0 {
			continue
		}

		if err := a.store.Set(a.ctx, area, toSend); err != nil {
			a.log.Warningf("advertise: Set failed for area %s: %v", area, err)
			continue
		}
		for key := range toSend {
			delete(at.dirty, key)
		}
		metricAdvertiseBatchSize.Update(float64(len(toSend)))
	}

	a.advertiseTimer.Reset(timeout)
}

// onAdvertiseTimer is the advertise timer's callback: run
// advertisePendingKeys, then lazily drain stale backoff penalty from
// any key whose deadline has passed, decoupled from the send itself.
func (a *Agent) onAdvertiseTimer() {
	a.advertisePendingKeys()

	now := time.Now()
	for _, at := range a.areas {
		for _, bo := range at.advertBackoffs {
			if bo.DeadlinePassed(now) {
				bo.ReportSuccess()
			}
		}
	}
}
