package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	return &History{
		entries: make([]string, 0),
		index:   -1,
		path:    filepath.Join(t.TempDir(), "history"),
	}
}

func TestNavigation(t *testing.T) {
	h := newTestHistory(t)
	h.Add("first")
	h.Add("second")

	entry, ok := h.Previous("draft")
	require.True(t, ok)
	assert.Equal(t, "second", entry)

	entry, ok = h.Previous("draft")
	require.True(t, ok)
	assert.Equal(t, "first", entry)

	// Walking past the oldest entry stays on it.
	entry, ok = h.Previous("draft")
	assert.False(t, ok)
	assert.Equal(t, "first", entry)

	entry, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "second", entry)

	// Walking past the newest entry restores the saved draft.
	entry, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "draft", entry)
}

func TestDuplicateOfLastEntrySkipped(t *testing.T) {
	h := newTestHistory(t)
	h.Add("hello")
	h.Add("hello")
	assert.Len(t, h.entries, 1)
}

func TestMultilinePersistence(t *testing.T) {
	h := newTestHistory(t)
	h.Add("line one\nline two")

	reloaded := &History{entries: make([]string, 0), index: -1, path: h.path}
	reloaded.load()
	require.Len(t, reloaded.entries, 1)
	assert.Equal(t, "line one\nline two", reloaded.entries[0])
}

func TestLoadMissingFile(t *testing.T) {
	h := &History{
		entries: make([]string, 0),
		index:   -1,
		path:    filepath.Join(os.TempDir(), "does-not-exist-ragline-test"),
	}
	h.load()
	assert.Empty(t, h.entries)
}
