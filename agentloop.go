// Package agentloop provides a high-level façade over the orchestration
// engine and its services (code execution, tool registry, transcripts,
// logging) enabling rapid construction of analysis agents. Most applications
// interact with this package by:
//  1. Creating a Loop via New() with a primary model (optionally overriding
//     the decision model, stores, policy and logger)
//  2. Registering additional tools beside the built-in CodeRunner
//  3. Asking questions with Ask(), which drives the full
//     answer/decide/dispatch/integrate cycle to completion
//
// The façade delegates orchestration to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable transcript
// store, a metrics sink and a structured logger.
package agentloop

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/code"
	"github.com/hupe1980/agentloop/config"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/engine"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/namespace"
	"github.com/hupe1980/agentloop/tool"
	"github.com/hupe1980/agentloop/tool/builtin"
)

// Options configures the Loop instance.
type Options struct {
	// Config carries execution limits and the security level. Defaults to
	// config.Default().
	Config *config.Config

	// DecisionModel picks tools each round. Defaults to the primary model.
	DecisionModel model.Model

	// Store persists conversation transcripts (defaults to in-memory).
	Store core.TranscriptStore

	// Records receives one execution record per tool call (defaults to a
	// no-op sink; wire metrics.NewPrometheusRecorder here for Prometheus).
	Records core.RecordSink

	// Executor runs code for the built-in CodeRunner tool. Defaults to a
	// Python executor configured from Config. Set to nil-disable by
	// DisableCodeRunner instead.
	Executor code.Executor

	// DisableCodeRunner skips registering the built-in execution tools.
	DisableCodeRunner bool

	// Instructions is the system prompt for the primary model.
	Instructions string

	// Owner and Agent name the namespace identities derived per
	// conversation. Both default to "default".
	Owner string
	Agent string

	// Logger (defaults to a slog JSON logger on stderr).
	Logger *logging.LoopLogger

	// OnAssistantReply observes assistant replies as they are produced.
	OnAssistantReply func(conversationID, text string)
}

// Loop is the high-level façade aggregating the engine and its services.
type Loop struct {
	opts       Options
	engine     *engine.Engine
	executor   code.Executor
	namespaces *namespace.Store
}

// New creates a Loop around a primary model. Any unset service is
// initialized with a sensible local default.
func New(m model.Model, optFns ...func(o *Options)) (*Loop, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NewLogger(nil),
		Owner:  "default",
		Agent:  "default",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("agentloop: %w", err)
	}

	namespaces := namespace.NewStore()
	executor := opts.Executor
	if executor == nil {
		executor = code.NewPythonExecutor(namespaces, func(o *code.PythonExecutorOptions) {
			o.PythonBin = opts.Config.PythonBin
			o.Policy = code.Policy{Level: opts.Config.Level()}
			o.DefaultTimeout = opts.Config.DefaultTimeout()
			o.MaxOutputChars = opts.Config.MaxOutputChars
			o.SummaryBudget = opts.Config.SummaryBudgetChars
			o.Logger = opts.Logger
		})
	}

	registry := tool.NewRegistry(opts.Logger)
	if !opts.DisableCodeRunner {
		if err := registry.Register(builtin.NewCodeRunner(executor)); err != nil {
			return nil, fmt.Errorf("agentloop: %w", err)
		}
		if err := registry.Register(builtin.NewContinueAnalyze()); err != nil {
			return nil, fmt.Errorf("agentloop: %w", err)
		}
	}

	eng := engine.New(m, registry, func(o *engine.Options) {
		if opts.DecisionModel != nil {
			o.DecisionModel = opts.DecisionModel
		}
		if opts.Store != nil {
			o.Store = opts.Store
		}
		if opts.Records != nil {
			o.Records = opts.Records
		}
		o.Logger = opts.Logger
		o.MaxRounds = opts.Config.MaxRounds
		o.Instructions = opts.Instructions
		o.OnAssistantReply = opts.OnAssistantReply
	})

	return &Loop{opts: opts, engine: eng, executor: executor, namespaces: namespaces}, nil
}

// RegisterTool adds a tool to the underlying registry.
func (l *Loop) RegisterTool(t tool.Tool) error {
	return l.engine.Registry().Register(t)
}

// Registry exposes the tool registry for advanced wiring (MCP connectors,
// deliberate replacements).
func (l *Loop) Registry() *tool.Registry { return l.engine.Registry() }

// Identity returns the namespace identity used for a conversation. Code run
// by CodeRunner in different conversations never shares variables.
func (l *Loop) Identity(conversationID string) namespace.Identity {
	return namespace.Identity{
		OwnerID:   l.opts.Owner,
		AgentID:   l.opts.Agent,
		SessionID: conversationID,
	}
}

// Ask runs one user question through the loop and blocks until it reaches a
// terminal state. The returned Outcome reports whether the loop terminated
// cleanly or hit the round budget, along with the final answer.
func (l *Loop) Ask(ctx context.Context, conversationID, question string) (*engine.Outcome, error) {
	return l.engine.Ask(ctx, conversationID, l.Identity(conversationID), question)
}

// Transcript returns a copy of a conversation's transcript.
func (l *Loop) Transcript(conversationID string) (*core.Transcript, error) {
	return l.engine.Transcript(conversationID)
}

// ResetNamespace discards all variables of a conversation's namespace. The
// next code execution starts from a fresh interpreter.
func (l *Loop) ResetNamespace(ctx context.Context, conversationID string) error {
	return l.executor.Reset(ctx, l.Identity(conversationID))
}

// Close releases every live interpreter worker. The Loop must not be used
// afterwards.
func (l *Loop) Close() error {
	return l.namespaces.Close()
}
