package model

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedResponse configures one step in a scripted sequence.
type ScriptedResponse struct {
	Text string
	Err  error
}

// ScriptedModel is a deterministic Model for tests and examples: it replays a
// fixed sequence of responses and records every request it saw.
type ScriptedModel struct {
	mu        sync.Mutex
	index     int
	responses []ScriptedResponse
	requests  []Request
}

// NewScriptedModel builds a model that replays the given responses in order.
func NewScriptedModel(responses ...ScriptedResponse) *ScriptedModel {
	cloned := make([]ScriptedResponse, len(responses))
	copy(cloned, responses)
	return &ScriptedModel{responses: cloned}
}

// Generate returns the next scripted response, or an error once the script
// is exhausted.
func (m *ScriptedModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.index >= len(m.responses) {
		return nil, fmt.Errorf("model: script exhausted at step %d", m.index+1)
	}
	current := m.responses[m.index]
	m.index++
	if current.Err != nil {
		return nil, current.Err
	}
	return &Response{Text: current.Text, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "scripted"}
}

// Requests returns a copy of every request seen so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls reports how many times Generate ran.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
