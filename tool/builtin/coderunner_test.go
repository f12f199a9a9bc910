package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/code"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/namespace"
	"github.com/hupe1980/agentloop/tool"
)

type fakeExecutor struct {
	lastReq code.Request
	lastID  namespace.Identity
	res     *code.Result
	err     error
}

func (f *fakeExecutor) Execute(ctx context.Context, req code.Request, id namespace.Identity) (*code.Result, error) {
	f.lastReq = req
	f.lastID = id
	return f.res, f.err
}

func (f *fakeExecutor) Reset(ctx context.Context, id namespace.Identity) error { return nil }

func newToolContext() *tool.Context {
	return tool.NewContext(context.Background(), namespace.Identity{OwnerID: "o", AgentID: "a"}, "call-1", nil)
}

func TestCodeRunnerExplicitCode(t *testing.T) {
	exec := &fakeExecutor{res: &code.Result{Success: true, Stdout: "3\n", VariableCount: 1, Elapsed: 12 * time.Millisecond}}
	runner := NewCodeRunner(exec)

	got, err := runner.Call(newToolContext(), map[string]any{"code": "print(1+2)"})
	require.NoError(t, err)

	rep, ok := got.(*Report)
	require.True(t, ok)
	assert.True(t, rep.Success)
	assert.Equal(t, "3\n", rep.Stdout)
	assert.Equal(t, "print(1+2)", exec.lastReq.Code)
	assert.Empty(t, exec.lastReq.Source)
	assert.Contains(t, rep.Render(), "stdout:\n3")
}

func TestCodeRunnerExtractsFromPreviousMessage(t *testing.T) {
	exec := &fakeExecutor{res: &code.Result{Success: true}}
	runner := NewCodeRunner(exec)

	tc := newToolContext().WithLastAssistantText("Running it now:\n```python\nx = 1\n```")
	_, err := runner.Call(tc, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, exec.lastReq.Code)
	assert.Contains(t, exec.lastReq.Source, "x = 1")
}

func TestCodeRunnerTimeoutArgument(t *testing.T) {
	exec := &fakeExecutor{res: &code.Result{Success: true}}
	runner := NewCodeRunner(exec)

	_, err := runner.Call(newToolContext(), map[string]any{"code": "x=1", "timeout_seconds": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, exec.lastReq.Timeout)
}

func TestCodeRunnerReportsFailuresAsResults(t *testing.T) {
	// Code-level failures go back to the model as a tool turn, not an error.
	exec := &fakeExecutor{
		res: &code.Result{Success: false, Stdout: "partial", TimedOut: true, Elapsed: time.Second},
		err: &code.TimeoutError{Limit: time.Second},
	}
	runner := NewCodeRunner(exec)

	got, err := runner.Call(newToolContext(), map[string]any{"code": "while True: pass"})
	require.NoError(t, err)

	rep := got.(*Report)
	assert.False(t, rep.Success)
	assert.True(t, rep.TimedOut)
	assert.Equal(t, "timeout", rep.ErrorKind)
	assert.Contains(t, rep.Render(), "Execution failed (timeout)")
	assert.Contains(t, rep.Render(), "partial")
}

func TestCodeRunnerWorkerCrashIsAnError(t *testing.T) {
	exec := &fakeExecutor{res: &code.Result{}, err: code.ErrWorkerCrashed}
	runner := NewCodeRunner(exec)

	_, err := runner.Call(newToolContext(), map[string]any{"code": "x=1"})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "EXECUTION_ERROR", te.Code)
}

func TestReportEnrichRecord(t *testing.T) {
	rep := &Report{
		Success:       false,
		Stdout:        "out",
		StdoutLen:     300,
		VariableCount: 7,
		TimedOut:      true,
		ErrorKind:     "timeout",
		ErrorText:     "killed",
	}
	rec := core.ExecutionRecord{Tool: "CodeRunner"}
	rep.EnrichRecord(&rec)
	assert.False(t, rec.Success)
	assert.Equal(t, "out", rec.Stdout)
	assert.Equal(t, 300, rec.StdoutLen)
	assert.Equal(t, 7, rec.VariableCount)
	assert.True(t, rec.TimedOut)
	assert.Equal(t, "timeout", rec.ErrorKind)
}

func TestContinueAnalyze(t *testing.T) {
	ca := NewContinueAnalyze()
	assert.Equal(t, "continue_analyze", ca.Name())

	got, err := ca.Call(newToolContext(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, got.(string), "Continue")
}
