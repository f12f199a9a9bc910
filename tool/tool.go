// Package tool implements the capability subsystem that lets the
// orchestration loop invoke structured functions (computations, code
// execution, remote services) with schema validated arguments, consistent
// error handling and docs the decision model can read.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentloop/internal/util"
)

// Kind tags how a tool executes so the dispatcher knows what to expect.
type Kind int

const (
	// KindLocalSync runs in-process and returns its result immediately.
	KindLocalSync Kind = iota
	// KindLocalAsync runs in-process but returns a Task to await.
	KindLocalAsync
	// KindRemote proxies to an external service (MCP server, RPC, ...).
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocalSync:
		return "local"
	case KindLocalAsync:
		return "local-async"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Tool defines the contract every registered capability satisfies.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool. Intention commands
	// resolve against it verbatim.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is rendered into the decision prompt.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]interface{}

	// Kind reports how the tool executes.
	Kind() Kind

	// Call executes the tool with already-validated arguments. Async tools
	// may return a Task, which the dispatcher awaits.
	Call(toolCtx *Context, args map[string]interface{}) (interface{}, error)
}

// Task is the uniform abstraction for work that completes later. Synchronous
// handlers are tasks that complete immediately; the dispatcher awaits
// whichever it gets.
type Task interface {
	Await(toolCtx *Context) (interface{}, error)
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(toolCtx *Context) (interface{}, error)

// Await runs the function.
func (f TaskFunc) Await(toolCtx *Context) (interface{}, error) { return f(toolCtx) }

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// UnknownToolError reports a command naming a tool the registry has never
// seen. It is surfaced as a tool turn so the model can correct itself.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// ArgumentValidationError reports arguments that failed the tool's schema.
// Like UnknownToolError it is reported back to the model, never dispatched.
type ArgumentValidationError struct {
	Tool string
	Err  error
}

func (e *ArgumentValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentValidationError) Unwrap() error { return e.Err }
