package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAppendAndGet(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AppendTurn("conv-1", core.NewTurn(core.RoleUser, "hi")))
	require.NoError(t, s.AppendTurn("conv-1", core.NewTurn(core.RoleAssistant, "hello")))

	tr, err := s.Get("conv-1")
	require.NoError(t, err)
	turns := tr.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, 0, turns[0].Ordinal)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, 1, turns[1].Ordinal)
}

func TestStoreUnknownConversationIsEmpty(t *testing.T) {
	s := openTestStore(t)
	tr, err := s.Get("never-seen")
	require.NoError(t, err)
	assert.Zero(t, tr.Len())
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcripts.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendTurn("conv-1", core.NewTurn(core.RoleUser, "persist me")))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	tr, err := s2.Get("conv-1")
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "persist me", tr.GetTurns()[0].Content)
}

func TestStorePreservesHiddenFlag(t *testing.T) {
	s := openTestStore(t)

	hidden := core.NewTurn(core.RoleUser, "internal analysis prompt")
	hidden.Hidden = true
	require.NoError(t, s.AppendTurn("conv-1", hidden))

	tr, err := s.Get("conv-1")
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())
	assert.True(t, tr.GetTurns()[0].Hidden)
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AppendTurn("conv-1", core.NewTurn(core.RoleUser, "hi")))
	require.NoError(t, s.Delete("conv-1"))
	require.NoError(t, s.Delete("conv-1"))

	tr, err := s.Get("conv-1")
	require.NoError(t, err)
	assert.Zero(t, tr.Len())

	// Ordinals restart cleanly after a delete.
	require.NoError(t, s.AppendTurn("conv-1", core.NewTurn(core.RoleUser, "again")))
	tr, err = s.Get("conv-1")
	require.NoError(t, err)
	assert.Equal(t, 0, tr.GetTurns()[0].Ordinal)
}

func TestStoreIsolatesConversations(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AppendTurn("a", core.NewTurn(core.RoleUser, "for a")))
	require.NoError(t, s.AppendTurn("b", core.NewTurn(core.RoleUser, "for b")))

	ta, err := s.Get("a")
	require.NoError(t, err)
	tb, err := s.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 1, ta.Len())
	assert.Equal(t, "for b", tb.GetTurns()[0].Content)
}
