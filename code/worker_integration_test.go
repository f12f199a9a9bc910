package code

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/namespace"
)

// These tests exercise the real interpreter worker end to end: process
// spawn, the line-delimited JSON protocol, cross-call namespace persistence,
// and the kill/retire path. They skip when no python3 is installed.

func newLiveExecutor(t *testing.T, optFns ...func(o *PythonExecutorOptions)) *PythonExecutor {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	store := namespace.NewStore()
	t.Cleanup(func() { store.Close() })
	return NewPythonExecutor(store, optFns...)
}

func TestWorkerPersistsVariablesAcrossCalls(t *testing.T) {
	e := newLiveExecutor(t)
	id := testIdentity()

	res, err := e.Execute(context.Background(), Request{Code: "x = 1"}, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.VariableCount)

	res, err = e.Execute(context.Background(), Request{Code: "print(x + 1)"}, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Stdout, "2")
}

func TestWorkerSummarizesTrailingExpression(t *testing.T) {
	e := newLiveExecutor(t)

	res, err := e.Execute(context.Background(), Request{Code: "3 * 14"}, testIdentity())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.ReturnSummary, "int")
	assert.Contains(t, res.ReturnSummary, "42")
	assert.Empty(t, res.Stdout)
}

func TestWorkerRuntimeErrorKeepsNamespace(t *testing.T) {
	e := newLiveExecutor(t)
	id := testIdentity()

	_, err := e.Execute(context.Background(), Request{Code: "x = 5"}, id)
	require.NoError(t, err)

	res, err := e.Execute(context.Background(), Request{Code: "1/0"}, id)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.False(t, res.Success)
	assert.Contains(t, re.Traceback, "ZeroDivisionError")

	// The exception must not cost the worker or its variables.
	res, err = e.Execute(context.Background(), Request{Code: "print(x)"}, id)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "5")
}

func TestWorkerTimeoutKillsAndRetires(t *testing.T) {
	e := newLiveExecutor(t)
	id := testIdentity()

	_, err := e.Execute(context.Background(), Request{Code: "x = 1"}, id)
	require.NoError(t, err)

	start := time.Now()
	res, err := e.Execute(context.Background(), Request{
		Code:    "import time\ntime.sleep(30)",
		Timeout: 500 * time.Millisecond,
	}, id)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second, "kill must not wait for the sleep")

	// The stuck worker was killed; the next call runs on a fresh interpreter
	// with an empty namespace.
	res, err = e.Execute(context.Background(), Request{Code: "print('x' in globals())"}, id)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "False")
}

func TestWorkerEphemeralExecutionLeavesNamespaceUntouched(t *testing.T) {
	e := newLiveExecutor(t)
	id := testIdentity()

	_, err := e.Execute(context.Background(), Request{Code: "x = 1"}, id)
	require.NoError(t, err)

	res, err := e.Execute(context.Background(), Request{Code: "y = 2\nprint(y)", Ephemeral: true}, id)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "2")

	res, err = e.Execute(context.Background(), Request{Code: "print('y' in globals(), 'x' in globals())"}, id)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "False True")
}

func startLiveWorker(t *testing.T, cfg workerConfig) *pyWorker {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	w, err := startWorker(context.Background(), "python3", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWorkerProtocolRoundTrip(t *testing.T) {
	w := startLiveWorker(t, workerConfig{SummaryBudget: 256})

	reply, err := w.Exec(context.Background(), "a = [1, 2, 3]\nprint(sum(a))\na")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "6\n", reply.Stdout)
	assert.Contains(t, reply.Summary, "list")
	assert.Contains(t, reply.Summary, "len=3")
	assert.Equal(t, 1, reply.VarCount)

	require.NoError(t, w.Reset(context.Background()))
	assert.Equal(t, 0, w.VariableCount())
}

func TestWorkerRuntimeImportGuard(t *testing.T) {
	// The in-worker guard is the layer behind the static scan: it rejects
	// denied roots even when the import name is assembled at runtime.
	w := startLiveWorker(t, workerConfig{DeniedRoots: []string{"socket"}})

	reply, err := w.Exec(context.Background(), "import socket")
	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "not permitted")

	reply, err = w.Exec(context.Background(), "import json\nprint(json.dumps([1]))")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "[1]\n", reply.Stdout)
}

func TestWorkerAllowedRootsGuard(t *testing.T) {
	w := startLiveWorker(t, workerConfig{AllowedRoots: []string{"math"}})

	reply, err := w.Exec(context.Background(), "import math\nprint(math.floor(2.7))")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "2\n", reply.Stdout)

	reply, err = w.Exec(context.Background(), "import json")
	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "not permitted at this security level")
}

func TestWorkerResetClearsVariables(t *testing.T) {
	e := newLiveExecutor(t)
	id := testIdentity()

	_, err := e.Execute(context.Background(), Request{Code: "x = 1"}, id)
	require.NoError(t, err)

	require.NoError(t, e.Reset(context.Background(), id))

	res, err := e.Execute(context.Background(), Request{Code: "print('x' in globals())"}, id)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "False")
}
