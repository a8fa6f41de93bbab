package session

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/avikale/ragline/chat/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)

		heightDiff := newHeight - oldHeight

		m.recalculateLayout()

		if heightDiff != 0 && m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

// observeScroll reports a user-initiated scroll to the follow
// controller, measured as the live line distance to the bottom.
func (m *Model) observeScroll() {
	distance := m.viewport.TotalLineCount() - m.viewport.Height - m.viewport.YOffset
	if distance < 0 {
		distance = 0
	}
	m.follow.ObserveScroll(distance)
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := m.height - styles.HeaderHeight - styles.StatusBarHeight
	viewportWidth := m.width

	if m.streaming || m.connecting || m.pendingInput != "" {
		viewportHeight -= 1
	} else {
		viewportHeight -= m.textarea.Height() + styles.InputBorderHeight
	}

	if m.showToolOutput {
		viewportHeight -= styles.ToolOutputHeight
	}

	if m.err != nil {
		viewportHeight -= 1
	}

	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}
	if err := m.renderer.SetWidth(viewportWidth - styles.MessageHorizontalFrameSize()); err != nil {
		log.Error("resizing markdown renderer", "error", err)
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		m.follow.NotePin()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderTranscript())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
}
