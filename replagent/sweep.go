package replagent

import (
	"time"

	"github.com/kvmesh/kvclient/kvstore"
)

// checkPersistKeyInStore is the sweep engine, spec.md §4.4. It
// periodically re-reads every persisted key to detect silent drops (a
// peer's view of this key disappearing without an unsetKey call ever
// being made) and re-advertises anything missing.
func (a *Agent) checkPersistKeyInStore() {
	timeout := a.cfg.SweepPeriod

	for area, at := range a.areas {
		if len(at.persisted) == 0 {
			continue
		}

		keys := make([]string, 0, len(at.persisted))
		for key := range at.persisted {
			keys = append(keys, key)
		}

		pub, err := a.store.Get(a.ctx, area, keys)
		if err != nil {
			a.log.Warningf("sweep: Get failed for area %s: %v", area, err)
			if 1*time.Second < timeout {
				timeout = 1 * time.Second
			}
			continue
		}

		toSync := make(map[string]kvstore.Value)
		for key, val := range at.persisted {
			if _, ok := pub.KeyVals[key]; !ok {
				toSync[key] = val
			}
		}

		if len(toSync) > 0 {
			if err := a.store.Set(a.ctx, area, toSync); err != nil {
				a.log.Warningf("sweep: Set failed for area %s: %v", area, err)
			} else {
				metricSweepRecoveries.Add(len(toSync))
			}
		}

		a.processPublication(pub)
	}

	if timeout > a.cfg.SweepPeriod {
		timeout = a.cfg.SweepPeriod
	}
	a.sweepTimer.Reset(timeout)
}

func (a *Agent) onSweepTimer() {
	a.checkPersistKeyInStore()
}
