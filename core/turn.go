package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem marks instruction turns injected by the framework.
	RoleSystem Role = "system"
	// RoleUser marks turns authored by the end user (or by the framework on
	// the user's behalf, e.g. tool-result analysis prompts).
	RoleUser Role = "user"
	// RoleAssistant marks turns produced by the primary model.
	RoleAssistant Role = "assistant"
	// RoleTool marks turns carrying tool results, including reported errors.
	// Tool turns are distinguishable from assistant output by role alone.
	RoleTool Role = "tool"
)

// Turn is one entry of a conversation transcript. The orchestration loop only
// ever appends turns; existing turns are immutable once recorded.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Ordinal   int       `json:"ordinal"`
	// Hidden turns feed model context but are not shown to the end user
	// (e.g. the internal analysis prompt after a tool round).
	Hidden bool `json:"hidden,omitempty"`
}

// NewTurn creates a turn with a fresh ID and UTC timestamp. The ordinal is
// assigned by the transcript on append.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a unique identifier for turns and execution records.
func NewID() string { return uuid.NewString() }

// Transcript is an ordered, append-only conversation history. It is safe for
// concurrent access, but the orchestration loop additionally serializes
// appends with the namespace mutation of the same iteration so a tool result
// is never recorded before its side effects are durable.
type Transcript struct {
	ID      string    `json:"id"`
	Turns   []Turn    `json:"turns"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	mu      sync.RWMutex
}

// NewTranscript creates an empty transcript with the given conversation id.
func NewTranscript(id string) *Transcript {
	now := time.Now().UTC()
	return &Transcript{ID: id, Turns: []Turn{}, Created: now, Updated: now}
}

// Append adds a turn, assigning the next ordinal. It returns the stored turn.
func (t *Transcript) Append(turn Turn) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	turn.Ordinal = len(t.Turns)
	if turn.ID == "" {
		turn.ID = NewID()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	t.Turns = append(t.Turns, turn)
	t.Updated = time.Now().UTC()
	return turn
}

// GetTurns returns a defensive copy of the turn slice.
func (t *Transcript) GetTurns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	turns := make([]Turn, len(t.Turns))
	copy(turns, t.Turns)
	return turns
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Turns)
}

// LastByRole returns the most recent turn with the given role.
func (t *Transcript) LastByRole(role Role) (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.Turns) - 1; i >= 0; i-- {
		if t.Turns[i].Role == role {
			return t.Turns[i], true
		}
	}
	return Turn{}, false
}

// Clone performs a deep copy so callers can diverge safely.
func (t *Transcript) Clone() *Transcript {
	t.mu.RLock()
	defer t.mu.RUnlock()
	turns := make([]Turn, len(t.Turns))
	copy(turns, t.Turns)
	return &Transcript{ID: t.ID, Turns: turns, Created: t.Created, Updated: t.Updated}
}

// Render flattens the transcript into the `===role===:` text form consumed by
// decision prompts. Tool turns are included only when includeTools is set so
// the same transcript can serve both the user-visible view and the full
// context view.
func (t *Transcript) Render(includeTools bool) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	for _, turn := range t.Turns {
		if turn.Role == RoleSystem {
			continue
		}
		if turn.Role == RoleTool && !includeTools {
			continue
		}
		fmt.Fprintf(&b, "===%s===:\n%s\n", turn.Role, turn.Content)
	}
	return b.String()
}
