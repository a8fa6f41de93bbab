package session

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikale/ragline/internal/api"
	"github.com/avikale/ragline/internal/configuration"
	"github.com/avikale/ragline/internal/protocol"
	"github.com/avikale/ragline/internal/stream"
	"github.com/avikale/ragline/internal/transcript"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	config := &configuration.Config{BackendURL: "http://localhost:8000", RequestTimeoutSeconds: 1}
	client := api.New(config.BackendURL, time.Second)
	m, err := New(context.Background(), config, client, "abc", "Chat ab", "llama3", 2)
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func event(m *Model, ev protocol.Event) {
	m.Update(streamEventMsg{token: m.sessionToken, event: ev})
}

func TestHistorySnapshotReplacesTranscript(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()

	event(m, protocol.HistorySnapshot{Messages: []transcript.Message{
		{Role: transcript.Human, Text: "hello"},
		{Role: transcript.Assistant, Text: "hi"},
	}})
	assert.Equal(t, 2, m.transcript.Len())

	event(m, protocol.HistorySnapshot{Messages: []transcript.Message{
		{Role: transcript.Human, Text: "only this"},
	}})
	assert.Equal(t, 1, m.transcript.Len())
}

func TestTokenDeltasGrowAssistantMessage(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()
	m.streaming = true

	event(m, protocol.TokenDelta{Text: "Hel"})
	event(m, protocol.TokenDelta{Text: "lo"})

	last, ok := m.transcript.Last()
	require.True(t, ok)
	assert.Equal(t, transcript.Assistant, last.Role)
	assert.Equal(t, "Hello", last.Text)
	assert.True(t, m.firstTokenSeen)
}

func TestToolTokensStayOutOfTranscript(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()

	event(m, protocol.ToolTokenDelta{Text: "retrieved 3 chunks"})
	assert.Equal(t, 0, m.transcript.Len())
	assert.Equal(t, "retrieved 3 chunks", m.toolOutput.String())
}

func TestPostTurnSnapshotEndsTurn(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()
	m.streaming = true
	m.firstTokenSeen = true

	event(m, protocol.HistorySnapshot{Messages: []transcript.Message{
		{Role: transcript.Human, Text: "hello"},
		{Role: transcript.Assistant, Text: "Hello"},
	}})
	assert.False(t, m.streaming)
	assert.False(t, m.firstTokenSeen)
}

func TestStreamErrorEndsTurnAndSurfaces(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()
	m.streaming = true

	event(m, protocol.StreamError{Message: "model overloaded"})
	assert.False(t, m.streaming)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "model overloaded")
}

func TestStaleEventsDropped(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()

	m.Update(streamEventMsg{token: uuid.New(), event: protocol.TokenDelta{Text: "stale"}})
	assert.Equal(t, 0, m.transcript.Len())
}

func TestCancelTearsDownSession(t *testing.T) {
	m := newTestModel(t)
	m.session = &stream.Session{}
	m.sessionToken = uuid.New()
	m.streaming = true
	staleToken := m.sessionToken

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, m.session)
	assert.False(t, m.streaming)

	// Events from the canceled session no longer apply.
	m.Update(streamEventMsg{token: staleToken, event: protocol.TokenDelta{Text: "late"}})
	assert.Equal(t, 0, m.transcript.Len())
}

func TestSendFailureKeepsOptimisticEcho(t *testing.T) {
	m := newTestModel(t)
	// A zero-value session is closed, so the write is rejected.
	m.session = &stream.Session{}
	m.sessionToken = uuid.New()

	m.textarea.SetValue("hello")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})

	last, ok := m.transcript.Last()
	require.True(t, ok)
	assert.Equal(t, transcript.Human, last.Role)
	assert.Equal(t, "hello", last.Text)
	assert.ErrorIs(t, m.err, stream.ErrNotOpen)
	assert.False(t, m.streaming)
}

func TestCtrlCQuitsWhenIdle(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLastAssistantText(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()

	_, ok := m.lastAssistantText()
	assert.False(t, ok)

	event(m, protocol.HistorySnapshot{Messages: []transcript.Message{
		{Role: transcript.Human, Text: "hello"},
		{Role: transcript.Assistant, Text: "first"},
		{Role: transcript.Assistant, Text: "second"},
		{Role: transcript.Human, Text: "bye"},
	}})
	text, ok := m.lastAssistantText()
	require.True(t, ok)
	assert.Equal(t, "second", text)
}

func TestStatusLifecycleDrivesLabel(t *testing.T) {
	m := newTestModel(t)
	m.sessionToken = uuid.New()

	event(m, protocol.ToolStart{Name: "retrieve"})
	time.Sleep(100 * time.Millisecond)
	label, visible := m.status.Snapshot()
	assert.True(t, visible)
	assert.Equal(t, "Running retrieve…", label)

	event(m, protocol.ToolEnd{Name: "retrieve"})
	time.Sleep(400 * time.Millisecond)
	_, visible = m.status.Snapshot()
	assert.False(t, visible)
}
