package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpress"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	compileDuration *prom.HistogramVec
	compileOutcome  *prom.CounterVec
	toolResults     *prom.CounterVec
	inFlight        prom.Gauge
	httpDuration    *prom.HistogramVec
}

// compileBuckets cover typesetting runs from sub-second to the tool timeout.
var compileBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120}

// NewPrometheusRecorder constructs and registers the collectors on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Total duration of a compile request",
			Buckets:   compileBuckets,
		}, []string{"mode"})
		pr.compileOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compile_outcomes_total",
			Help:      "Compile requests by mode and outcome",
		}, []string{"mode", "outcome"})
		pr.toolResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "External tool invocations by tool and result",
		}, []string{"tool", "result"})
		pr.inFlight = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "compiles_in_flight",
			Help:      "Compiler invocations currently holding a slot",
		})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status",
			Buckets:   compileBuckets,
		}, []string{"route", "status"})
		reg.MustRegister(pr.stageDuration, pr.compileDuration, pr.compileOutcome, pr.toolResults, pr.inFlight, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveCompileDuration(mode string, d time.Duration) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileOutcome(mode string, outcome OutcomeLabel) {
	if p == nil || p.compileOutcome == nil {
		return
	}
	p.compileOutcome.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncToolResult(tool string, success bool) {
	if p == nil || p.toolResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.toolResults.WithLabelValues(tool, res).Inc()
}

func (p *PrometheusRecorder) AddInFlightCompiles(delta int) {
	if p == nil || p.inFlight == nil {
		return
	}
	p.inFlight.Add(float64(delta))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
