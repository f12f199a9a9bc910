package core

import "time"

// ExecutionRecord is the structured envelope emitted once per tool call so
// external renderers (CLIs, web UIs, metrics) can observe the loop without
// depending on internal types. Stdout/Stderr are already truncated to the
// configured output budget; the original lengths are preserved alongside.
type ExecutionRecord struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Tool           string        `json:"tool"`
	Success        bool          `json:"success"`
	Elapsed        time.Duration `json:"elapsed"`
	Stdout         string        `json:"stdout,omitempty"`
	Stderr         string        `json:"stderr,omitempty"`
	StdoutLen      int           `json:"stdout_len,omitempty"`
	StderrLen      int           `json:"stderr_len,omitempty"`
	Error          string        `json:"error,omitempty"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	VariableCount  int           `json:"variable_count,omitempty"`
	TimedOut       bool          `json:"timed_out,omitempty"`
	Round          int           `json:"round"`
	Timestamp      time.Time     `json:"timestamp"`
}

// RecordEnricher is implemented by tool results that carry execution detail
// (captured output, namespace size) worth copying into the record for the
// call that produced them.
type RecordEnricher interface {
	EnrichRecord(rec *ExecutionRecord)
}

// RecordSink consumes execution records. Implementations must be safe for
// concurrent use and must not block the orchestration loop for long.
type RecordSink interface {
	Record(rec ExecutionRecord)
}

// RecordSinkFunc adapts a function to the RecordSink interface.
type RecordSinkFunc func(rec ExecutionRecord)

// Record implements RecordSink.
func (f RecordSinkFunc) Record(rec ExecutionRecord) { f(rec) }

// NoOpSink discards all records.
type NoOpSink struct{}

// Record implements RecordSink.
func (NoOpSink) Record(ExecutionRecord) {}

// MultiSink fans a record out to several sinks in order.
type MultiSink []RecordSink

// Record implements RecordSink.
func (m MultiSink) Record(rec ExecutionRecord) {
	for _, s := range m {
		s.Record(rec)
	}
}
