package metrics

import "time"

// OutcomeLabel enumerates compile request outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess    OutcomeLabel = "success"
	OutcomeInvalid    OutcomeLabel = "invalid"
	OutcomeToolFailed OutcomeLabel = "tool_failed"
	OutcomeCanceled   OutcomeLabel = "canceled"
	OutcomeError      OutcomeLabel = "error"
)

// Recorder defines observability hooks for compile requests, their stages
// and the HTTP surface.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveCompileDuration(mode string, d time.Duration)
	IncCompileOutcome(mode string, outcome OutcomeLabel)
	IncToolResult(tool string, success bool)
	AddInFlightCompiles(delta int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveCompileDuration(string, time.Duration) {}
func (NoopRecorder) IncCompileOutcome(string, OutcomeLabel) {}
func (NoopRecorder) IncToolResult(string, bool) {}
func (NoopRecorder) AddInFlightCompiles(int) {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}

// Compile-time interface checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
