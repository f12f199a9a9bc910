// Package builtin provides the tools every agent gets out of the box: the
// code runner backed by the execution engine, and the continue-analysis
// no-op that lets a model keep a long analysis going.
package builtin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentloop/code"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/tool"
)

// Report is the structured result of one code run, rendered into the tool
// turn and copied into the call's execution record.
type Report struct {
	Success       bool
	Stdout        string
	Stderr        string
	StdoutLen     int
	StderrLen     int
	ReturnSummary string
	VariableCount int
	Elapsed       time.Duration
	TimedOut      bool
	ErrorKind     string
	ErrorText     string
}

// Render formats the report as the text the model reads back.
func (r *Report) Render() string {
	var b strings.Builder
	if r.Success {
		b.WriteString("Execution succeeded")
	} else {
		fmt.Fprintf(&b, "Execution failed (%s): %s", r.ErrorKind, r.ErrorText)
	}
	fmt.Fprintf(&b, " in %.2fs.\n", r.Elapsed.Seconds())
	if r.Stdout != "" {
		fmt.Fprintf(&b, "stdout:\n%s\n", r.Stdout)
	}
	if r.Stderr != "" {
		fmt.Fprintf(&b, "stderr:\n%s\n", r.Stderr)
	}
	if r.ReturnSummary != "" {
		fmt.Fprintf(&b, "result: %s\n", r.ReturnSummary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// EnrichRecord implements core.RecordEnricher.
func (r *Report) EnrichRecord(rec *core.ExecutionRecord) {
	rec.Success = r.Success
	rec.Stdout = r.Stdout
	rec.Stderr = r.Stderr
	rec.StdoutLen = r.StdoutLen
	rec.StderrLen = r.StderrLen
	rec.VariableCount = r.VariableCount
	rec.TimedOut = r.TimedOut
	if r.ErrorKind != "" {
		rec.ErrorKind = r.ErrorKind
		rec.Error = r.ErrorText
	}
}

// NewCodeRunner builds the CodeRunner tool on top of an executor. When the
// model calls it without a code argument, the code is extracted from the
// model's own previous message, which is how agents are prompted to use it.
func NewCodeRunner(executor code.Executor) *tool.FunctionTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Python code to run. Omit to run the code block from your previous message.",
			},
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "Wall-clock limit for this run.",
			},
		},
	}

	return tool.NewFunctionTool(
		"CodeRunner",
		"Run Python in your persistent workspace. Variables survive between calls.",
		schema,
		func(tc *tool.Context, args map[string]any) (any, error) {
			req := code.Request{}
			if c, _ := args["code"].(string); c != "" {
				req.Code = c
			} else {
				req.Source = tc.LastAssistantText()
			}
			if secs, ok := args["timeout_seconds"].(float64); ok && secs > 0 {
				req.Timeout = time.Duration(secs * float64(time.Second))
			}

			res, err := executor.Execute(tc.Context(), req, tc.Identity())
			if err != nil && errors.Is(err, code.ErrWorkerCrashed) {
				// Infrastructure failure, not something the model can fix.
				return nil, err
			}

			rep := &Report{}
			if res != nil {
				rep.Success = res.Success
				rep.Stdout = res.Stdout
				rep.Stderr = res.Stderr
				rep.StdoutLen = res.StdoutLen
				rep.StderrLen = res.StderrLen
				rep.ReturnSummary = res.ReturnSummary
				rep.VariableCount = res.VariableCount
				rep.Elapsed = res.Elapsed
				rep.TimedOut = res.TimedOut
			}
			if err != nil {
				rep.Success = false
				rep.ErrorKind = errorKind(err)
				rep.ErrorText = err.Error()
				if re := (*code.RuntimeError)(nil); errors.As(err, &re) && re.Traceback != "" {
					rep.ErrorText = re.Traceback
				}
			}
			return rep, nil
		},
	)
}

func errorKind(err error) string {
	switch {
	case errors.As(err, new(*code.PolicyViolationError)):
		return "policy_violation"
	case errors.As(err, new(*code.TimeoutError)):
		return "timeout"
	case errors.As(err, new(*code.RuntimeError)):
		return "runtime_error"
	case errors.As(err, new(*code.NoCodeFoundError)):
		return "no_code_found"
	default:
		return "error"
	}
}
