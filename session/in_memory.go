// Package session provides transcript persistence. The in-memory store here
// suits tests and short-lived processes; session/sqlite keeps conversations
// across restarts.
package session

import (
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// InMemoryStore is a volatile TranscriptStore keeping conversations in a
// process local map. It is safe for concurrent access. Each returned
// transcript is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu          sync.Mutex
	transcripts map[string]*core.Transcript
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string]*core.Transcript)}
}

// Get returns an existing transcript (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(conversationID string) (*core.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(conversationID).Clone(), nil
}

// AppendTurn adds a turn to an existing or newly created transcript.
func (s *InMemoryStore) AppendTurn(conversationID string, turn core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(conversationID).Append(turn)
	return nil
}

// Delete removes a transcript. Deleting an absent conversation is a no-op.
func (s *InMemoryStore) Delete(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, conversationID)
	return nil
}

func (s *InMemoryStore) getOrCreateLocked(conversationID string) *core.Transcript {
	t, ok := s.transcripts[conversationID]
	if !ok {
		t = core.NewTranscript(conversationID)
		s.transcripts[conversationID] = t
	}
	return t
}
