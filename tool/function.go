package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentloop/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Applies declared defaults for omitted optional arguments
//   - Normalizes error handling so callers receive *ToolError with consistent
//     codes: VALIDATION_ERROR for schema mismatches, EXECUTION_ERROR for
//     failures inside the function (custom codes preserved if the function
//     returns *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	// Tool identifier, matched verbatim against intention commands
	name string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted arguments
	parameters map[string]any
	// Execution kind; async functions should return a Task from fn
	kind Kind
	// User supplied implementation
	fn func(toolCtx *Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a synchronous FunctionTool from explicit schema
// and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "Calculator",
//	  "Evaluate an arithmetic expression",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "expression": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"expression"},
//	  },
//	  func(tc *Context, args map[string]any) (any, error) {
//	    return evaluate(args["expression"].(string))
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		kind:        KindLocalSync,
		fn:          fn,
	}
}

// NewAsyncFunctionTool constructs a FunctionTool whose function returns a
// Task. The dispatcher awaits the task before integrating the result.
func NewAsyncFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *Context, args map[string]any) (any, error),
) *FunctionTool {
	t := NewFunctionTool(name, description, parameters, fn)
	t.kind = KindLocalAsync
	return t
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection, equivalent to util.CreateSchema(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *Context, args map[string]any) (any, error),
) *FunctionTool {
	schema := util.CreateSchema(structType)
	return NewFunctionTool(name, description, schema, fn)
}

// Name returns the unique tool name used in decision parsing and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the (minimal) JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Kind reports how the tool executes.
func (t *FunctionTool) Kind() Kind { return t.kind }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
//
// Error semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ArgumentValidationError
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *FunctionTool) Call(toolCtx *Context, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start tool=%s call_id=%s", t.name, toolCtx.CallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed tool=%s error=%v", t.name, err)
		return nil, &ArgumentValidationError{Tool: t.name, Err: err}
	}
	args = util.ApplyDefaults(args, t.parameters)

	result, err := t.fn(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("execution failed: %v", err),
			Code:    "EXECUTION_ERROR",
		}
	}

	logger.Debug("tool.call.done tool=%s duration_ms=%d", t.name, time.Since(start).Milliseconds())
	return result, nil
}
