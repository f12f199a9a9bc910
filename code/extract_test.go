package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Run("single block", func(t *testing.T) {
		got, err := Extract("Here you go:\n```python\nx = 1\nprint(x)\n```\nDone.")
		require.NoError(t, err)
		assert.Equal(t, "x = 1\nprint(x)", got)
	})

	t.Run("last block wins", func(t *testing.T) {
		msg := "First attempt:\n```python\nbroken(\n```\nActually, use this:\n```python\nfixed = True\n```"
		got, err := Extract(msg)
		require.NoError(t, err)
		assert.Equal(t, "fixed = True", got)
	})

	t.Run("untagged fence", func(t *testing.T) {
		got, err := Extract("```\na = 2\n```")
		require.NoError(t, err)
		assert.Equal(t, "a = 2", got)
	})

	t.Run("no block", func(t *testing.T) {
		_, err := Extract("I cannot write code for that.")
		var nc *NoCodeFoundError
		require.ErrorAs(t, err, &nc)
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := Extract("")
		assert.Error(t, err)
	})
}

func TestTruncate(t *testing.T) {
	t.Run("under limit untouched", func(t *testing.T) {
		got, n := Truncate("hello", 100)
		assert.Equal(t, "hello", got)
		assert.Equal(t, 5, n)
	})

	t.Run("over limit is bounded and marked", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'a'
		}
		got, n := Truncate(string(long), 100)
		assert.Equal(t, 500, n)
		assert.LessOrEqual(t, len([]rune(got)), 100)
		assert.Contains(t, got, TruncationMarker)
		assert.Contains(t, got, "500 chars total")
	})

	t.Run("zero limit disables truncation", func(t *testing.T) {
		got, n := Truncate("abcdef", 0)
		assert.Equal(t, "abcdef", got)
		assert.Equal(t, 6, n)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("short summary reproduced exactly", func(t *testing.T) {
		assert.Equal(t, "int 42", Summarize("int 42", 64))
	})

	t.Run("long summary never exceeds the budget", func(t *testing.T) {
		long := ""
		for i := 0; i < 100; i++ {
			long += "0123456789"
		}
		got := Summarize(long, 80)
		assert.LessOrEqual(t, len([]rune(got)), 80)
		assert.Contains(t, got, TruncationMarker)
	})

	t.Run("tiny budget still bounded", func(t *testing.T) {
		got := Summarize("abcdefghij", 4)
		assert.LessOrEqual(t, len([]rune(got)), 4)
	})
}
