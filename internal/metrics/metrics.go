// Package metrics records operational metrics for a product-mix run behind a
// small backend interface.
//
// The default backend is a no-op, so instrumentation calls are always safe.
// Concrete systems (Pushgateway, DogStatsD) live in subpackages and are
// installed once at startup with SetBackend.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal     = "productmix_step_total"
	StepDuration  = "productmix_step_duration_seconds"
	RecordsTotal  = "productmix_records_total"
	WarningsTotal = "productmix_warnings_total"

	statusSuccess = "success"
	statusFailure = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step and observes its
// duration. Steps are load_dealers, aggregate, validate and write_output.
func RecordStep(job, step string, err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of the given kind:
//   - "dealers"
//   - "sales_lines"
//   - "unmapped_rows"
//   - "accounts"
//   - "out_of_tolerance"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordWarning counts data-quality warnings (duplicate dealers, unmapped
// labels, unmatched accounts) by kind.
func RecordWarning(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(WarningsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
