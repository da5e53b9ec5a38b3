package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const subsystem = "influxsink"

var (
	passesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "reconcile_passes_total",
			Help:      "Count of reconciliation passes, by whether this replica held leadership.",
		},
		[]string{"leader"},
	)
	ruleFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "rule_fired_total",
			Help:      "Count of transition rules whose guard held during a pass.",
		},
		[]string{"rule"},
	)
	actionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "action_failures_total",
			Help:      "Count of rule actions that failed and will be retried on a later pass.",
		},
		[]string{"rule"},
	)
	sinkBlocked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "sink_blocked",
			Help:      "1 when the last report for the sink is Blocked, 0 when Active.",
		},
		[]string{"namespace", "name"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		metrics.Registry.MustRegister(passesTotal)
		metrics.Registry.MustRegister(ruleFiredTotal)
		metrics.Registry.MustRegister(actionFailuresTotal)
		metrics.Registry.MustRegister(sinkBlocked)
	})
}

// RecordPass records one reconciliation pass and the rules it fired.
func RecordPass(leader bool, fired, failed []string) {
	passesTotal.WithLabelValues(strconv.FormatBool(leader)).Inc()
	for _, r := range fired {
		ruleFiredTotal.WithLabelValues(r).Inc()
	}
	for _, r := range failed {
		actionFailuresTotal.WithLabelValues(r).Inc()
	}
}

// SetBlocked records the last report phase of a sink.
func SetBlocked(namespace, name string, blocked bool) {
	v := 0.0
	if blocked {
		v = 1
	}
	sinkBlocked.WithLabelValues(namespace, name).Set(v)
}

// ForgetSink drops the series of a deleted sink.
func ForgetSink(namespace, name string) {
	sinkBlocked.DeleteLabelValues(namespace, name)
}
