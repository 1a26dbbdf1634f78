// Package metrics records operational metrics from file tables and their
// cursors without tying the pipeline to a concrete metrics system.
//
// Backend is the narrow interface concrete systems implement (counters and
// durations). A global, pluggable backend defaults to a no-op, so the
// recording helpers are always safe to call. Concrete backends live in
// subpackages (prompush, datadog).
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	OpenTotal     = "tabsource_open_total"
	OpenDuration  = "tabsource_open_duration_seconds"
	RowsTotal     = "tabsource_rows_total"
	CursorsClosed = "tabsource_cursors_closed_total"
)

// Row kinds reported through RecordRows.
const (
	KindEmitted  = "emitted"
	KindDropped  = "dropped"
	KindReported = "reported"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordOpen counts one Open of a table and its duration. dialect is the
// resolved dialect name, or empty when Open failed before resolving one.
func RecordOpen(job, dialect string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":     job,
		"dialect": dialect,
		"status":  status,
	}
	b := current()
	b.IncCounter(OpenTotal, 1, lbls)
	b.ObserveHistogram(OpenDuration, d.Seconds(), lbls)
}

// RecordRows adds delta rows of kind (KindEmitted, KindDropped,
// KindReported) for job. Non-positive deltas are ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordClose counts one closed cursor for job.
func RecordClose(job string) {
	current().IncCounter(CursorsClosed, 1, Labels{"job": job})
}
