package code

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/namespace"
)

// PythonExecutorOptions configures a PythonExecutor.
type PythonExecutorOptions struct {
	// PythonBin is the interpreter binary to launch workers with.
	PythonBin string

	// Policy gates which code may run.
	Policy Policy

	// DefaultTimeout applies when a Request carries no timeout.
	DefaultTimeout time.Duration

	// MaxOutputChars bounds captured stdout and stderr per execution.
	MaxOutputChars int

	// SummaryBudget bounds the rendered summary of the final expression.
	SummaryBudget int

	// Logger receives structured execution logs.
	Logger *logging.LoopLogger
}

// PythonExecutor runs Python in per-identity persistent interpreter workers.
// Workers live inside the namespace store as handles, so acquiring a lease
// both serializes access and hands back the identity's interpreter.
type PythonExecutor struct {
	opts  PythonExecutorOptions
	store *namespace.Store
	spawn func(ctx context.Context) (process, error)
}

// NewPythonExecutor creates an executor backed by the given namespace store.
func NewPythonExecutor(store *namespace.Store, optFns ...func(o *PythonExecutorOptions)) *PythonExecutor {
	opts := PythonExecutorOptions{
		PythonBin:      "python3",
		Policy:         Policy{Level: LevelMedium},
		DefaultTimeout: 30 * time.Second,
		MaxOutputChars: 10000,
		SummaryBudget:  2048,
		Logger:         logging.NewLogger(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	e := &PythonExecutor{opts: opts, store: store}
	e.spawn = func(ctx context.Context) (process, error) {
		return startWorker(ctx, e.opts.PythonBin, workerConfig{
			AllowedRoots:  e.opts.Policy.AllowedRoots(),
			DeniedRoots:   e.opts.Policy.DeniedRoots(),
			SummaryBudget: e.opts.SummaryBudget,
		})
	}
	return e
}

// Execute resolves, scans, and runs one piece of code under the identity's
// namespace. The returned Result is always non-nil; the error, when set, is
// one of the package's typed errors (or a wrapped transport failure).
func (e *PythonExecutor) Execute(ctx context.Context, req Request, id namespace.Identity) (*Result, error) {
	src := req.Code
	if src == "" {
		extracted, err := Extract(req.Source)
		if err != nil {
			return &Result{}, err
		}
		src = extracted
	}

	// Rejections happen before the namespace is touched.
	if err := e.opts.Policy.Scan(src); err != nil {
		e.opts.Logger.Warn("code rejected by policy namespace=%s error=%v", id.String(), err)
		return &Result{}, err
	}
	if err := id.Validate(); err != nil {
		return &Result{}, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.opts.DefaultTimeout
	}

	if req.Ephemeral {
		proc, err := e.spawn(ctx)
		if err != nil {
			return &Result{}, err
		}
		defer proc.Close()
		res, err := e.run(ctx, proc, src, timeout, func() {})
		e.opts.Logger.LogCodeExecution(id.String(), res.Elapsed, res.Success, res.TimedOut, err)
		return res, err
	}

	lease, err := e.store.Acquire(ctx, id)
	if err != nil {
		return &Result{}, err
	}
	defer lease.Release()

	proc, _ := lease.Handle().(process)
	if proc == nil {
		proc, err = e.spawn(ctx)
		if err != nil {
			return &Result{}, err
		}
		lease.SetHandle(proc)
	}

	retire := func() {
		proc.Kill()
		lease.SetHandle(nil)
	}
	res, err := e.run(ctx, proc, src, timeout, retire)
	e.opts.Logger.LogCodeExecution(id.String(), res.Elapsed, res.Success, res.TimedOut, err)
	return res, err
}

// run performs the timed round-trip. retire is invoked whenever the worker
// can no longer be trusted (timeout kill, crash, protocol desync).
func (e *PythonExecutor) run(ctx context.Context, proc process, src string, timeout time.Duration, retire func()) (*Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := proc.Exec(execCtx, src)
	elapsed := time.Since(start)

	if err != nil {
		retire()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return &Result{Elapsed: elapsed, TimedOut: true}, &TimeoutError{Limit: timeout}
		}
		if errors.Is(err, ErrWorkerCrashed) {
			return &Result{Elapsed: elapsed}, err
		}
		return &Result{Elapsed: elapsed}, fmt.Errorf("code: execution aborted: %w", err)
	}

	stdout, stdoutLen := Truncate(reply.Stdout, e.opts.MaxOutputChars)
	stderr, stderrLen := Truncate(reply.Stderr, e.opts.MaxOutputChars)
	res := &Result{
		Success:       reply.OK,
		Stdout:        stdout,
		Stderr:        stderr,
		StdoutLen:     stdoutLen,
		StderrLen:     stderrLen,
		ReturnSummary: Summarize(reply.Summary, e.opts.SummaryBudget),
		VariableCount: reply.VarCount,
		Elapsed:       elapsed,
	}
	if !reply.OK {
		return res, &RuntimeError{Message: reply.Error, Traceback: reply.Traceback}
	}
	return res, nil
}

// Reset discards the identity's interpreter and namespace. The next Execute
// starts from an empty namespace.
func (e *PythonExecutor) Reset(ctx context.Context, id namespace.Identity) error {
	return e.store.Reset(ctx, id)
}

// VariableCount reports how many user-visible names the identity's namespace
// held after its last execution. Zero when no worker exists.
func (e *PythonExecutor) VariableCount(ctx context.Context, id namespace.Identity) (int, error) {
	lease, err := e.store.Acquire(ctx, id)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	if counter, ok := lease.Handle().(namespace.VariableCounter); ok {
		return counter.VariableCount(), nil
	}
	return 0, nil
}
