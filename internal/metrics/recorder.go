// Package metrics defines observability hooks for render and export
// operations, with a Prometheus-backed implementation and a no-op default.
package metrics

import "time"

// ResultLabel enumerates render/export result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNotFound ResultLabel = "not_found"
	ResultError    ResultLabel = "error"
)

// Recorder defines observability hooks for render and export metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveRenderDuration(mode string, d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncRenderResult(mode string, result ResultLabel)
	ObserveExportDuration(d time.Duration)
	IncExportOutcome(outcome string) // outcome: success|error
	SetExportedPages(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(string, time.Duration) {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)  {}
func (NoopRecorder) IncRenderResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveExportDuration(time.Duration)         {}
func (NoopRecorder) IncExportOutcome(string)                     {}
func (NoopRecorder) SetExportedPages(int)                        {}
