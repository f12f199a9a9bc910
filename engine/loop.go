package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentloop/code"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/intention"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/namespace"
	"github.com/hupe1980/agentloop/tool"
)

// renderable lets structured tool results control how they appear in the
// transcript.
type renderable interface {
	Render() string
}

// Ask runs one user turn through the state machine and returns how it ended.
// Calls for the same conversation are serialized; independent conversations
// proceed concurrently with independent namespaces.
func (e *Engine) Ask(ctx context.Context, conversationID string, id namespace.Identity, question string) (*Outcome, error) {
	lock := e.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	logger := e.logger.WithConversation(conversationID)

	if err := e.store.AppendTurn(conversationID, core.NewTurn(core.RoleUser, question)); err != nil {
		return nil, fmt.Errorf("engine: append user turn: %w", err)
	}

	answer, err := e.answer(ctx, conversationID, logger)
	if err != nil {
		return nil, err
	}

	rounds := 0
	for {
		if rounds >= e.maxRounds {
			logger.Warn("round budget exhausted rounds=%d", rounds)
			return &Outcome{State: StateAborted, Answer: answer, Rounds: rounds}, nil
		}

		decision, parseErr := e.decide(ctx, conversationID, logger)
		terminalAfterDispatch := false
		switch {
		case parseErr != nil:
			// Surfaced after the bounded retry; an explicit error turn beats
			// pretending the model wanted to stop.
			turn := core.NewTurn(core.RoleTool, "Tool decision failed: "+parseErr.Error())
			if err := e.store.AppendTurn(conversationID, turn); err != nil {
				return nil, fmt.Errorf("engine: append parse error turn: %w", err)
			}
		case decision.Terminal && len(decision.Commands) == 0:
			return &Outcome{State: StateTerminated, Answer: answer, Rounds: rounds}, nil
		default:
			if err := e.dispatch(ctx, conversationID, id, decision.Commands, answer, rounds, logger); err != nil {
				return nil, err
			}
			// Sentinel alongside commands: run what was asked, react once,
			// then stop instead of deciding again.
			terminalAfterDispatch = decision.Terminal
		}

		// Integrate: nudge the model to react to what just happened, then
		// let it answer again.
		hidden := core.NewTurn(core.RoleUser, analysisPrompt)
		hidden.Hidden = true
		if err := e.store.AppendTurn(conversationID, hidden); err != nil {
			return nil, fmt.Errorf("engine: append analysis turn: %w", err)
		}
		answer, err = e.answer(ctx, conversationID, logger)
		if err != nil {
			return nil, err
		}
		rounds++

		if terminalAfterDispatch {
			return &Outcome{State: StateTerminated, Answer: answer, Rounds: rounds}, nil
		}
	}
}

// answer generates the next assistant reply from the full transcript and
// appends it.
func (e *Engine) answer(ctx context.Context, conversationID string, logger *logging.LoopLogger) (string, error) {
	tr, err := e.store.Get(conversationID)
	if err != nil {
		return "", fmt.Errorf("engine: load transcript: %w", err)
	}

	start := time.Now()
	resp, err := e.model.Generate(ctx, model.Request{
		Instructions: e.instructions,
		Turns:        tr.GetTurns(),
	})
	logger.LogModelCall(e.model.Info().Name, time.Since(start), err == nil, err)
	if err != nil {
		return "", fmt.Errorf("engine: model call: %w", err)
	}

	if err := e.store.AppendTurn(conversationID, core.NewTurn(core.RoleAssistant, resp.Text)); err != nil {
		return "", fmt.Errorf("engine: append assistant turn: %w", err)
	}
	if e.onReply != nil {
		e.onReply(conversationID, resp.Text)
	}
	return resp.Text, nil
}

// decide asks the decision model which tools to run next. The exchange is a
// one-shot side conversation: neither prompt nor reply lands in the
// transcript. A parse failure triggers exactly one strict-JSON re-prompt
// before the failure is surfaced to the caller.
func (e *Engine) decide(ctx context.Context, conversationID string, logger *logging.LoopLogger) (*intention.Decision, error) {
	tr, err := e.store.Get(conversationID)
	if err != nil {
		return nil, fmt.Errorf("engine: load transcript: %w", err)
	}

	prompt, err := renderDecisionPrompt(e.registry.DocsText(), e.sentinel, tr)
	if err != nil {
		return nil, fmt.Errorf("engine: render decision prompt: %w", err)
	}

	raw, err := e.generateDecision(ctx, prompt, logger)
	if err != nil {
		return nil, err
	}

	decision, parseErr := intention.Parse(raw)
	if parseErr == nil {
		return decision, nil
	}

	logger.Warn("decision parse failed, re-prompting once error=%v", parseErr)
	reformat, err := renderReformatPrompt(raw, e.sentinel)
	if err != nil {
		return nil, fmt.Errorf("engine: render reformat prompt: %w", err)
	}
	raw, err = e.generateDecision(ctx, reformat, logger)
	if err != nil {
		return nil, err
	}
	decision, parseErr = intention.Parse(raw)
	if parseErr == nil {
		logger.Debug("decision recovered on re-prompt")
		return decision, nil
	}
	return nil, parseErr
}

func (e *Engine) generateDecision(ctx context.Context, prompt string, logger *logging.LoopLogger) (string, error) {
	start := time.Now()
	resp, err := e.decisionModel.Generate(ctx, model.Request{
		Turns: []core.Turn{core.NewTurn(core.RoleUser, prompt)},
	})
	logger.LogModelCall(e.decisionModel.Info().Name, time.Since(start), err == nil, err)
	if err != nil {
		return "", fmt.Errorf("engine: decision model call: %w", err)
	}
	return resp.Text, nil
}

// dispatch runs each command in order and appends one tool turn per result.
// Unknown tools and invalid arguments become reported turns so the model can
// correct itself; only infrastructure failures abort the round.
func (e *Engine) dispatch(ctx context.Context, conversationID string, id namespace.Identity, commands []intention.Command, lastAnswer string, round int, logger *logging.LoopLogger) error {
	for _, cmd := range commands {
		callID := core.NewID()
		toolCtx := tool.NewContext(ctx, id, callID, logger).WithLastAssistantText(lastAnswer)

		start := time.Now()
		result, err := e.registry.Dispatch(toolCtx, cmd.Name, cmd.Args)
		elapsed := time.Since(start)
		logger.LogToolCall(cmd.Name, elapsed, err == nil, err)

		rec := core.ExecutionRecord{
			ID:             callID,
			ConversationID: conversationID,
			Tool:           cmd.Name,
			Success:        err == nil,
			Elapsed:        elapsed,
			Round:          round,
			Timestamp:      time.Now().UTC(),
		}

		var content string
		switch {
		case err != nil:
			rec.Error = err.Error()
			rec.ErrorKind = dispatchErrorKind(err)
			content = fmt.Sprintf("Tool %s failed: %s", cmd.Name, err.Error())
			if errors.Is(err, code.ErrWorkerCrashed) {
				// The round aborts, but the failure still leaves a trace.
				e.records.Record(rec)
				turn := core.NewTurn(core.RoleTool, content)
				if appendErr := e.store.AppendTurn(conversationID, turn); appendErr != nil {
					return fmt.Errorf("engine: append tool turn: %w", appendErr)
				}
				return fmt.Errorf("engine: tool %s: %w", cmd.Name, err)
			}
		default:
			content = fmt.Sprintf("Tool %s result:\n%s", cmd.Name, renderResult(result))
			if enricher, ok := result.(core.RecordEnricher); ok {
				enricher.EnrichRecord(&rec)
			}
		}
		e.records.Record(rec)

		if err := e.store.AppendTurn(conversationID, core.NewTurn(core.RoleTool, content)); err != nil {
			return fmt.Errorf("engine: append tool turn: %w", err)
		}
	}
	return nil
}

func dispatchErrorKind(err error) string {
	switch {
	case errors.As(err, new(*tool.UnknownToolError)):
		return "unknown_tool"
	case errors.As(err, new(*tool.ArgumentValidationError)):
		return "argument_validation"
	case errors.Is(err, code.ErrWorkerCrashed):
		return "worker_crashed"
	default:
		return "tool_error"
	}
}

func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "(no output)"
	case string:
		return v
	case renderable:
		return v.Render()
	case fmt.Stringer:
		return v.String()
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
