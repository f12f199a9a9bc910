package builtin

import "github.com/hupe1980/agentloop/tool"

// NewContinueAnalyze builds the no-argument tool a model calls to keep a
// multi-step analysis going instead of terminating. Its result is a plain
// acknowledgement; the value is the extra round it buys.
func NewContinueAnalyze() *tool.FunctionTool {
	return tool.NewFunctionTool(
		"continue_analyze",
		"Call this when the analysis is not finished and you need another round to continue it.",
		map[string]any{"type": "object"},
		func(tc *tool.Context, args map[string]any) (any, error) {
			return "Continue the analysis from where you left off.", nil
		},
	)
}
