package code

import (
	"context"
	"time"

	"github.com/hupe1980/agentloop/namespace"
)

// Request describes a single execution. Exactly one of Code or Source should
// be set: Code is executed verbatim, while Source is a raw assistant message
// from which the last fenced code block is extracted first.
type Request struct {
	// Code is the Python source to run.
	Code string

	// Source is an assistant message to extract code from when Code is empty.
	Source string

	// Timeout bounds wall-clock execution time. Zero means the executor's
	// default timeout.
	Timeout time.Duration

	// Ephemeral runs the code in a throwaway interpreter instead of the
	// identity's persistent namespace.
	Ephemeral bool
}

// Result reports what happened during one execution. It is populated even
// when Execute also returns an error, so callers can surface partial output.
type Result struct {
	Success       bool
	Stdout        string
	Stderr        string
	StdoutLen     int // length before truncation
	StderrLen     int
	ReturnSummary string // bounded summary of the final expression's value
	VariableCount int    // user-visible names in the namespace afterwards
	Elapsed       time.Duration
	TimedOut      bool
}

// Executor runs code on behalf of an identity. Implementations serialize
// executions per identity and must leave the namespace untouched when the
// request is rejected before reaching the interpreter.
type Executor interface {
	Execute(ctx context.Context, req Request, id namespace.Identity) (*Result, error)

	// Reset discards the identity's namespace so the next call starts fresh.
	Reset(ctx context.Context, id namespace.Identity) error
}
