package session

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/avikale/ragline/internal/transcript"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alertClipboardWrite.Update(msg)
	m.alertClipboardWrite = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	// Log for non-tick messages only
	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
		// Skip logging for spinner ticks
		default:
			log.Info("update completed", "msg_type", fmt.Sprintf("%T", msg), "streaming", m.streaming)
		}
	}()

	switch msg := msg.(type) {
	case connectedMsg:
		if msg.token != m.sessionToken {
			// A cancel or reconnect raced the dial; this session is stale.
			msg.session.Close()
			return m, nil
		}
		m.connecting = false
		m.session = msg.session
		if m.pendingInput != "" && m.snapshotApplied {
			input := m.pendingInput
			m.pendingInput = ""
			m.deliver(input)
			m.refreshViewport()
		}
		return m, nil

	case connectFailedMsg:
		if msg.token != m.sessionToken {
			return m, nil
		}
		m.connecting = false
		m.pendingInput = ""
		m.err = msg.err
		return m, nil

	case streamEventMsg:
		if msg.token != m.sessionToken {
			return m, nil
		}
		m.applyEvent(msg.event)
		return m, nil

	case streamClosedMsg:
		if msg.token != m.sessionToken {
			return m, nil
		}
		m.session = nil
		m.connecting = false
		m.streaming = false
		if msg.err != nil {
			m.err = msg.err
		}
		m.status.Reset()
		m.recalculateLayout()
		return m, nil

	case statusChangedMsg:
		return m, nil

	case tea.FocusMsg:
		m.windowFocused = true
		m.textarea.Focus()
		cmds = append(cmds, textarea.Blink)
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, nil

	case tea.KeyMsg:
		// Copy the last assistant message to clipboard.
		if msg.String() == "alt+w" {
			if text, ok := m.lastAssistantText(); ok {
				clipboard.Write(clipboard.FmtText, []byte(text))
				cmds = append(cmds, m.alertClipboardWrite.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!"))
			}
			return m, tea.Batch(cmds...)
		}

		if msg.String() == "alt+t" {
			m.showToolOutput = !m.showToolOutput
			m.recalculateLayout()
			return m, nil
		}

		if msg.Alt && !m.streaming {
			switch msg.String() {
			case "alt+p":
				if entry, ok := m.history.Previous(m.textarea.Value()); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			case "alt+n":
				if entry, ok := m.history.Next(); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			}
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			if m.streaming || m.pendingInput != "" {
				m.cancelTurn()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyCtrlJ:
			if !m.streaming {
				return m, m.submit()
			}

		case tea.KeyEnter:
			if m.historyNavigating {
				m.history.Reset()
				m.historyNavigating = false
			}
		}

		if !m.streaming && m.historyNavigating {
			switch msg.Type {
			case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
				m.history.Reset()
				m.historyNavigating = false
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		if m.follow.ShouldFollow() {
			m.viewport.GotoBottom()
			m.follow.NotePin()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.streaming {
			cmds = append(cmds, m.updateViewport(msg))
		} else {
			switch msg.String() {
			case "j", "k", "g", "G", "u", "d", "b", "ctrl+u", "ctrl+d", "f", " ":
				// Don't pass vim navigation keys to viewport while typing
			default:
				cmds = append(cmds, m.updateViewport(msg))
			}
		}
	default:
		cmds = append(cmds, m.updateViewport(msg))
	}

	return m, tea.Batch(cmds...)
}

// updateViewport routes a message to the viewport. Any scroll offset
// change it causes came from the user, so it is reported to the follow
// controller; programmatic jumps go through refreshViewport instead and
// never pass through here.
func (m *Model) updateViewport(msg tea.Msg) tea.Cmd {
	before := m.viewport.YOffset
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.YOffset != before {
		m.observeScroll()
	}
	return cmd
}

// lastAssistantText returns the newest assistant message's text.
func (m *Model) lastAssistantText() (string, bool) {
	messages := m.transcript.DisplaySlice()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == transcript.Assistant {
			return messages[i].Text, true
		}
	}
	return "", false
}
