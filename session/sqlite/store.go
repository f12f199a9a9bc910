// Package sqlite implements a durable TranscriptStore on SQLite so
// conversations survive process restarts. It uses the pure-Go modernc.org
// driver; no cgo required.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentloop/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	ordinal         INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	hidden          INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL,
	UNIQUE (conversation_id, ordinal)
);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns (conversation_id, ordinal);
`

// Store persists transcripts in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path, enables WAL mode, and
// ensures the schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path,
	))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite: initialize schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

// Get loads the transcript for a conversation. Unknown conversations yield an
// empty transcript, mirroring the in-memory store's lazy-create behavior.
func (s *Store) Get(conversationID string) (*core.Transcript, error) {
	rows, err := s.db.Query(
		`SELECT id, ordinal, role, content, hidden, created_at
		   FROM turns WHERE conversation_id = ? ORDER BY ordinal`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load transcript %s: %w", conversationID, err)
	}
	defer rows.Close() //nolint:errcheck

	tr := core.NewTranscript(conversationID)
	for rows.Next() {
		var (
			turn    core.Turn
			hidden  int
			created time.Time
		)
		if err := rows.Scan(&turn.ID, &turn.Ordinal, &turn.Role, &turn.Content, &hidden, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan turn: %w", err)
		}
		turn.Hidden = hidden != 0
		turn.Timestamp = created
		tr.Append(turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate turns: %w", err)
	}
	return tr, nil
}

// AppendTurn durably appends one turn, assigning the next ordinal.
func (s *Store) AppendTurn(conversationID string, turn core.Turn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(ordinal) + 1, 0) FROM turns WHERE conversation_id = ?`,
		conversationID,
	).Scan(&next); err != nil {
		return fmt.Errorf("sqlite: next ordinal: %w", err)
	}

	if turn.ID == "" {
		turn.ID = core.NewID()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	hidden := 0
	if turn.Hidden {
		hidden = 1
	}
	if _, err := tx.Exec(
		`INSERT INTO turns (id, conversation_id, ordinal, role, content, hidden, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, conversationID, next, string(turn.Role), turn.Content, hidden, turn.Timestamp,
	); err != nil {
		return fmt.Errorf("sqlite: insert turn: %w", err)
	}
	return tx.Commit()
}

// Delete removes a conversation's turns. Absent conversations are a no-op.
func (s *Store) Delete(conversationID string) error {
	_, err := s.db.Exec(`DELETE FROM turns WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("sqlite: delete transcript %s: %w", conversationID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
