// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Open counts and durations are partitioned by dialect and status; row
// counts by kind. The job label is the Pushgateway grouping key rather than
// a metric label. Collected metrics are pushed on Flush instead of being
// exposed on a scrape endpoint, which suits short-lived tabcat runs.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tabsource/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	openCounter  *prometheus.CounterVec // tabsource_open_total
	openDuration *prometheus.SummaryVec // tabsource_open_duration_seconds

	rowCounter   *prometheus.CounterVec // tabsource_rows_total
	closeCounter prometheus.Counter     // tabsource_cursors_closed_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tabsource"
	}

	reg := prometheus.NewRegistry()

	openCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.OpenTotal,
			Help: "Table opens, partitioned by resolved dialect and status.",
		},
		[]string{"dialect", "status"},
	)
	openDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.OpenDuration,
			Help:       "Time to open a table and build its cursor, in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"dialect", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows per kind (emitted, dropped, reported).",
		},
		[]string{"kind"},
	)
	closeCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.CursorsClosed,
			Help: "Cursors closed for this job.",
		},
	)

	for name, c := range map[string]prometheus.Collector{
		"open counter":  openCounter,
		"open summary":  openDuration,
		"row counter":   rowCounter,
		"close counter": closeCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		openCounter:  openCounter,
		openDuration: openDuration,
		rowCounter:   rowCounter,
		closeCounter: closeCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.OpenTotal:
		if b.openCounter == nil {
			return
		}
		b.openCounter.WithLabelValues(labels["dialect"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.CursorsClosed:
		if b.closeCounter == nil {
			return
		}
		b.closeCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.OpenDuration || b.openDuration == nil {
		return
	}
	b.openDuration.WithLabelValues(labels["dialect"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}

var _ metrics.Backend = (*Backend)(nil)
