package replagent

import "github.com/VictoriaMetrics/metrics"

// Instrumentation for the advertise/ttl/sweep engines, exported in the
// VictoriaMetrics exposition format so a host process can register
// metrics.WritePrometheus on its own http.Handler.
var (
	metricAdvertiseBatchSize = metrics.NewHistogram("replagent_advertise_batch_size")
	metricTTLRefreshCount    = metrics.NewCounter("replagent_ttl_refreshes_total")
	metricSweepRecoveries    = metrics.NewCounter("replagent_sweep_recoveries_total")
)
