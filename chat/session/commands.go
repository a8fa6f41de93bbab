package session

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/avikale/ragline/internal/protocol"
	"github.com/avikale/ragline/internal/stream"
)

// connectedMsg reports a successful dial.
type connectedMsg struct {
	token   uuid.UUID
	session *stream.Session
}

// connectFailedMsg reports a failed dial.
type connectFailedMsg struct {
	token uuid.UUID
	err   error
}

// streamEventMsg carries one decoded stream event into the update loop.
type streamEventMsg struct {
	token uuid.UUID
	event protocol.Event
}

// streamClosedMsg reports that the session's read loop exited.
type streamClosedMsg struct {
	token uuid.UUID
	err   error
}

// statusChangedMsg wakes the update loop when the status label's
// visibility may have changed.
type statusChangedMsg struct{}

// connect dials the conversation's stream endpoint. The token is minted
// here, before dialing, because the read loop can start delivering
// events before Dial returns.
func (m *Model) connect() tea.Cmd {
	token := uuid.New()
	m.sessionToken = token
	m.connecting = true
	m.snapshotApplied = false

	wsURL, err := m.api.WebSocketURL(m.chatID)
	if err != nil {
		return func() tea.Msg { return connectFailedMsg{token: token, err: err} }
	}

	ctx := m.ctx
	chatID := m.chatID
	return func() tea.Msg {
		handlers := stream.Handlers{
			OnEvent: func(ev protocol.Event) {
				if p := m.getProgram(); p != nil {
					p.Send(streamEventMsg{token: token, event: ev})
				}
			},
			OnClose: func(err error) {
				if p := m.getProgram(); p != nil {
					p.Send(streamClosedMsg{token: token, err: err})
				}
			},
		}
		s, err := stream.Dial(ctx, wsURL, chatID, handlers)
		if err != nil {
			return connectFailedMsg{token: token, err: err}
		}
		return connectedMsg{token: token, session: s}
	}
}

// submit consumes the textarea and sends its content as one turn. With
// no live session (after a cancel), the input is parked and a fresh
// dial is started.
func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return nil
	}

	m.history.Add(input)
	m.historyNavigating = false
	m.textarea.Reset()
	m.err = nil
	m.toolOutput.Reset()
	m.adjustTextareaHeight()

	if m.session == nil {
		m.pendingInput = input
		if m.connecting {
			return nil
		}
		return m.connect()
	}

	m.deliver(input)
	return nil
}

// deliver sends one turn over the live session. The human message is
// appended first and never rolled back: a failed write surfaces an
// error next to the visible message, it does not retract it.
func (m *Model) deliver(input string) {
	m.transcript.AppendHuman(input)

	if err := m.session.Send(input); err != nil {
		log.Error("sending message", "error", err)
		m.err = err
	} else {
		m.streaming = true
		m.firstTokenSeen = false
	}

	m.recalculateLayout()
	m.viewport.GotoBottom()
	m.follow.NotePin()
}

// cancelTurn tears down the session mid-turn. Partial output stays in
// the transcript; the next submit reconnects.
func (m *Model) cancelTurn() {
	if m.session != nil {
		m.session.Cancel()
		m.session = nil
	}
	m.sessionToken = uuid.Nil
	m.connecting = false
	m.pendingInput = ""
	m.streaming = false
	m.firstTokenSeen = false
	m.status.Reset()
	m.recalculateLayout()
}

// applyEvent folds one stream event into the conversation state.
func (m *Model) applyEvent(ev protocol.Event) {
	switch ev := ev.(type) {
	case protocol.HistorySnapshot:
		m.transcript.ApplyHistorySnapshot(ev.Messages)
		m.renderer.Reset()
		m.firstTokenSeen = false
		m.snapshotApplied = true
		if m.streaming {
			// Post-turn snapshot: the turn is over.
			if m.session != nil {
				m.session.EndTurn()
			}
			m.streaming = false
			m.recalculateLayout()
		} else if m.pendingInput != "" && m.session != nil {
			input := m.pendingInput
			m.pendingInput = ""
			m.deliver(input)
		}

	case protocol.TokenDelta:
		m.transcript.ApplyTokenDelta(ev.Text)
		m.firstTokenSeen = true

	case protocol.ToolTokenDelta:
		m.toolOutput.WriteString(ev.Text)

	case protocol.NodeStart, protocol.NodeEnd, protocol.ToolStart, protocol.ToolEnd:
		m.status.Apply(ev)

	case protocol.StreamError:
		log.Error("stream error", "message", ev.Message)
		m.err = errTurn(ev.Message)
		if m.streaming {
			if m.session != nil {
				m.session.EndTurn()
			}
			m.streaming = false
			m.recalculateLayout()
		}
		m.status.Reset()
	}

	m.refreshViewport()
}

// refreshViewport re-renders the transcript and chases the bottom when
// the user is pinned there.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if m.follow.ShouldFollow() {
		m.viewport.GotoBottom()
		m.follow.NotePin()
	}
}

// errTurn is a turn-level backend error.
type errTurn string

func (e errTurn) Error() string { return string(e) }
