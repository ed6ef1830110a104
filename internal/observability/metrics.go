// Package observability carries the run's logger and Prometheus metrics.
// The binaries are one-shot, so metrics live on a per-run registry and are
// exported with WriteFile in the node-exporter textfile-collector format
// instead of being scraped.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus gauges and counters for one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead    *prometheus.CounterVec // label: source
	RowsSkipped *prometheus.CounterVec // label: source
	RowsAligned prometheus.Gauge

	// Water-balance results, feet of lake level per year.
	ReferenceRate prometheus.Gauge
	CurrentRate   prometheus.Gauge
	NetRate       prometheus.Gauge

	DaysToDry   prometheus.Gauge
	NeverDries  prometheus.Gauge
	RunDuration prometheus.Gauge
	RunSuccess  prometheus.Gauge
}

// NewMetrics creates all run metrics on a fresh registry, so repeated runs
// in one process (and parallel tests) never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lake_balance",
			Name:      "rows_read_total",
			Help:      "Observations read per input series.",
		}, []string{"source"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lake_balance",
			Name:      "rows_skipped_total",
			Help:      "Missing observations skipped per input series.",
		}, []string{"source"}),
		RowsAligned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "rows_aligned",
			Help:      "Rows surviving the inner join across all series.",
		}),
		ReferenceRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "reference_rate_feet_per_year",
			Help:      "Evaporation-equivalent baseline rate from the reference epoch.",
		}),
		CurrentRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "current_rate_feet_per_year",
			Help:      "Raw current-epoch mass-balance input rate.",
		}),
		NetRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "net_rate_feet_per_year",
			Help:      "Current rate minus the reference baseline.",
		}),
		DaysToDry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "days_to_dry",
			Help:      "Projected days until the level reaches zero; 0 when the lake never dries.",
		}),
		NeverDries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "never_dries",
			Help:      "1 when the net rate is non-negative and no dry-up date exists.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the pipeline run.",
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lake_balance",
			Name:      "run_success",
			Help:      "1 when the run completed, 0 when it failed.",
		}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.RowsSkipped,
		m.RowsAligned,
		m.ReferenceRate,
		m.CurrentRate,
		m.NetRate,
		m.DaysToDry,
		m.NeverDries,
		m.RunDuration,
		m.RunSuccess,
	)

	return m
}

// WriteFile exports the registry to path in the Prometheus text format, for
// pickup by a node-exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
