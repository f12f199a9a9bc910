package tool

import (
	"context"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/namespace"
)

// Context carries per-invocation state into a tool call: the cancellation
// context, the caller's namespace identity, the assistant message that
// triggered the call, and a correlation ID for logs.
type Context struct {
	ctx               context.Context
	identity          namespace.Identity
	callID            string
	lastAssistantText string
	logger            *logging.LoopLogger
}

// NewContext builds an invocation context.
func NewContext(ctx context.Context, identity namespace.Identity, callID string, logger *logging.LoopLogger) *Context {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	return &Context{ctx: ctx, identity: identity, callID: callID, logger: logger}
}

// Context returns the cancellation context for the invocation.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Identity returns the namespace identity the call runs under.
func (c *Context) Identity() namespace.Identity { return c.identity }

// CallID returns the correlation identifier for this invocation.
func (c *Context) CallID() string { return c.callID }

// Logger returns the invocation-scoped logger.
func (c *Context) Logger() *logging.LoopLogger { return c.logger }

// LastAssistantText returns the assistant message preceding the decision,
// for tools (like the code runner) that read code out of it.
func (c *Context) LastAssistantText() string { return c.lastAssistantText }

// WithLastAssistantText returns a copy carrying the assistant message.
func (c *Context) WithLastAssistantText(text string) *Context {
	nc := *c
	nc.lastAssistantText = text
	return &nc
}
