package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agentloop/core"
)

func TestRecordCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.Record(core.ExecutionRecord{Tool: "CodeRunner", Success: true, Elapsed: 120 * time.Millisecond, StdoutLen: 40})
	rec.Record(core.ExecutionRecord{Tool: "CodeRunner", Success: false, ErrorKind: "timeout", TimedOut: true, Elapsed: 30 * time.Second})
	rec.Record(core.ExecutionRecord{Tool: "Weather", Success: true, Elapsed: 5 * time.Millisecond})

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.callsTotal.WithLabelValues("CodeRunner", "success", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.callsTotal.WithLabelValues("CodeRunner", "error", "timeout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.callsTotal.WithLabelValues("Weather", "success", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.timeoutsTotal.WithLabelValues("CodeRunner")))
}

func TestRecorderIsARecordSink(t *testing.T) {
	var _ core.RecordSink = NewPrometheusRecorder(prometheus.NewRegistry())
}
