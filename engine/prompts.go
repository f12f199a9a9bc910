package engine

import (
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/util"
)

// decisionPromptTemplate asks the decision model which tools to call next.
// It is sent as a one-shot user message to the decision model and never
// appended to the conversation transcript.
const decisionPromptTemplate = `# Task
Read the conversation below and decide which tools to call next to handle the
latest request. Reply with a JSON object holding a list of call expressions.

# Available tools
{{.Tools}}
- {{.Sentinel}}: call this when nothing further needs to run.

# Output format
Reply with JSON only, no prose:
{"tools": ["ToolName(arg=\"value\")"]}
When you are done, reply:
{"tools": ["{{.Sentinel}}"]}

# Conversation
{{.Conversation}}`

// reformatPromptTemplate is the single bounded retry after a parse failure.
const reformatPromptTemplate = `Your previous reply could not be parsed:

{{.Output}}

Reply again with ONLY a strict JSON object of this exact shape, double quotes
throughout, no surrounding text:
{"tools": ["ToolName(arg=\"value\")"]}
or, if nothing needs to run:
{"tools": ["{{.Sentinel}}"]}`

// analysisPrompt nudges the primary model to react to the tool results just
// appended. It travels as a hidden user turn.
const analysisPrompt = "You just ran a tool and its result is above. React to it and continue."

func renderDecisionPrompt(toolDocs, sentinel string, transcript *core.Transcript) (string, error) {
	return util.RenderTemplate(decisionPromptTemplate, map[string]any{
		"Tools":        toolDocs,
		"Sentinel":     sentinel,
		"Conversation": transcript.Render(true),
	})
}

func renderReformatPrompt(badOutput, sentinel string) (string, error) {
	return util.RenderTemplate(reformatPromptTemplate, map[string]any{
		"Output":   badOutput,
		"Sentinel": sentinel,
	})
}
