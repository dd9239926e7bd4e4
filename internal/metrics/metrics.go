// Package metrics exposes directory engine counters. The reader has no
// network stack, so metrics are exported to a text file that a collector
// can pick up (node_exporter textfile format).
package metrics

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "flashdir"
	subsystem = "directory"
)

var (
	Puts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "puts_total",
			Help:      "Credential insert/update attempts. Broken down by result.",
		},
		[]string{"result"},
	)

	Checks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checks_total",
			Help:      "Credential lookups. Broken down by verdict.",
		},
		[]string{"verdict"},
	)

	Compactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "compactions_total",
			Help:      "Stale record removals. Deferred means no empty slot was visible in the window.",
		},
		[]string{"result"},
	)

	ShiftedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "shifted_records_total",
			Help:      "Records moved backwards during compaction.",
		},
	)

	Sweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sweeps_total",
			Help:      "Completed maintenance passes over the whole table.",
		},
	)
)

var register sync.Once
var registry *prometheus.Registry

// Registry returns the registry holding the directory collectors,
// registering them on first use.
func Registry() *prometheus.Registry {
	register.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(Puts, Checks, Compactions, ShiftedRecords, Sweeps)
	})
	return registry
}

// Export writes the current metric values to path in the text exposition
// format.
func Export(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return errors.Wrapf(err, "export metrics to %s", path)
	}
	return nil
}
