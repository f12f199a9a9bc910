// Package metrics provides Prometheus-based recording of execution records
// so operators can watch tool traffic without touching internal types.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/agentloop/core"
)

// PrometheusRecorder implements core.RecordSink using Prometheus metrics.
type PrometheusRecorder struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	timeoutsTotal *prometheus.CounterVec
	outputBytes   *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a recorder registered on the given registerer
// (prometheus.DefaultRegisterer when nil).
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_tool_calls_total",
				Help: "Total number of tool calls by tool, status, and error kind",
			},
			[]string{"tool", "status", "error_kind"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloop_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		timeoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_tool_timeouts_total",
				Help: "Total number of tool calls killed on timeout",
			},
			[]string{"tool"},
		),
		outputBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloop_tool_output_chars",
				Help:    "Captured stdout length per call, before truncation",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"tool"},
		),
	}
}

// Record implements core.RecordSink.
func (p *PrometheusRecorder) Record(rec core.ExecutionRecord) {
	status := "success"
	if !rec.Success {
		status = "error"
	}
	errorKind := rec.ErrorKind
	if errorKind == "" {
		errorKind = "none"
	}

	p.callsTotal.WithLabelValues(rec.Tool, status, errorKind).Inc()
	p.callDuration.WithLabelValues(rec.Tool).Observe(rec.Elapsed.Seconds())
	if rec.TimedOut {
		p.timeoutsTotal.WithLabelValues(rec.Tool).Inc()
	}
	if rec.StdoutLen > 0 {
		p.outputBytes.WithLabelValues(rec.Tool).Observe(float64(rec.StdoutLen))
	}
}
