package core

// TranscriptStore persists conversation transcripts. The engine only appends
// turns; storage format and retention are implementation concerns.
//
// Contract:
//   - Get returns an isolated snapshot (or a fresh transcript) the caller may
//     read without further synchronization
//   - AppendTurn is atomic per conversation id
//   - Implementations must be safe for concurrent use across conversations
type TranscriptStore interface {
	// Get returns the transcript for id, creating an empty one if absent.
	Get(id string) (*Transcript, error)

	// AppendTurn durably records a turn for the conversation.
	AppendTurn(id string, turn Turn) error

	// Delete removes a conversation's history. Deleting an unknown id is not
	// an error.
	Delete(id string) error
}
