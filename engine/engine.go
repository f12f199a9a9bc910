package engine

import (
	"sync"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/intention"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/session"
	"github.com/hupe1980/agentloop/tool"
)

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// DecisionModel picks tools. Defaults to the primary model; point it at
	// a cheaper model when latency or cost matters.
	DecisionModel model.Model

	// Store persists conversation transcripts. Defaults to the in-memory
	// store.
	Store core.TranscriptStore

	// Records receives one execution record per tool call. Defaults to a
	// no-op sink.
	Records core.RecordSink

	// Logger provides structured logging.
	Logger *logging.LoopLogger

	// MaxRounds bounds dispatch/integrate cycles per user turn.
	MaxRounds int

	// Instructions is the system prompt for the primary model.
	Instructions string

	// OnAssistantReply observes every assistant reply as it is produced,
	// for rendering answers while the loop is still running.
	OnAssistantReply func(conversationID, text string)
}

// Engine drives conversations. One engine serves many conversations
// concurrently; turns within the same conversation are serialized so
// transcript appends and tool side effects stay ordered.
type Engine struct {
	model         model.Model
	decisionModel model.Model
	registry      *tool.Registry
	store         core.TranscriptStore
	records       core.RecordSink
	logger        *logging.LoopLogger
	maxRounds     int
	instructions  string
	sentinel      string
	onReply       func(conversationID, text string)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs an Engine around a primary model and a tool registry.
func New(m model.Model, registry *tool.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		DecisionModel: m,
		Store:         session.NewInMemoryStore(),
		Records:       core.NoOpSink{},
		Logger:        logging.NewLogger(nil),
		MaxRounds:     8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		model:         m,
		decisionModel: opts.DecisionModel,
		registry:      registry,
		store:         opts.Store,
		records:       opts.Records,
		logger:        opts.Logger.WithComponent("engine"),
		maxRounds:     opts.MaxRounds,
		instructions:  opts.Instructions,
		sentinel:      intention.TerminalSentinel,
		onReply:       opts.OnAssistantReply,
	}
}

// Registry exposes the engine's tool registry.
func (e *Engine) Registry() *tool.Registry { return e.registry }

// Transcript returns a copy of the conversation's transcript.
func (e *Engine) Transcript(conversationID string) (*core.Transcript, error) {
	return e.store.Get(conversationID)
}

// conversationLock returns the mutex serializing one conversation's turns.
func (e *Engine) conversationLock(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks == nil {
		e.locks = map[string]*sync.Mutex{}
	}
	l, ok := e.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[conversationID] = l
	}
	return l
}
