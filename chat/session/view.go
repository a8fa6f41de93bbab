package session

import (
	"fmt"
	"strings"

	"github.com/avikale/ragline/chat/styles"
	"github.com/avikale/ragline/internal/transcript"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	b.WriteString(styles.ViewportStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.showToolOutput {
		b.WriteString(m.renderToolOutput())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	if m.streaming {
		b.WriteString(fmt.Sprintf("%s Generating...\n", m.spinner.View()))
	} else if m.connecting || m.pendingInput != "" {
		b.WriteString(fmt.Sprintf("%s Connecting...\n", m.spinner.View()))
	} else {
		b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return b.String()
}

func (m *Model) renderTitle() string {
	sourcesStr := "no sources"
	if m.sourceCount == 1 {
		sourcesStr = "1 source"
	} else if m.sourceCount > 1 {
		sourcesStr = fmt.Sprintf("%d sources", m.sourceCount)
	}

	title := fmt.Sprintf(" 🤖 %s │ 💬 %s │ 📚 %s ", m.modelName, m.chatName, sourcesStr)
	return styles.TitleStyle.Width(m.width).Render(title)
}

// renderStatusBar renders the one-line activity channel between the
// transcript and the input. It keeps its line even when blank so the
// label's appearance never shifts the layout.
func (m *Model) renderStatusBar() string {
	if label, visible := m.status.Snapshot(); visible {
		return fmt.Sprintf("%s %s", m.spinner.View(), styles.StatusTextStyle.Render(label))
	}
	return ""
}

func (m *Model) renderToolOutput() string {
	content := m.toolOutput.String()
	if content == "" {
		content = styles.DimTextStyle.Render("(no tool output this turn)")
	} else {
		// Show the tail that fits the pane.
		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
		max := styles.ToolOutputHeight - 3
		if len(lines) > max {
			lines = lines[len(lines)-max:]
		}
		content = strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString(styles.ToolOutputLabelStyle.Render("⚡ Tool output"))
	b.WriteString("\n")
	b.WriteString(content)
	return styles.ToolOutputBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m *Model) renderTranscript() string {
	var b strings.Builder

	messages := m.transcript.DisplaySlice()
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		streamingLast := m.streaming && m.firstTokenSeen &&
			i == len(messages)-1 && msg.Role == transcript.Assistant

		switch msg.Role {
		case transcript.Human:
			rendered := m.renderer.ToMarkdown(i, true, msg.Text)
			b.WriteString(styles.UserMessageStyle.Render(rendered))

		case transcript.Assistant:
			rendered := m.renderer.ToMarkdown(i, !streamingLast, msg.Text)
			b.WriteString(styles.AIMessageStyle.Render(rendered))
			if streamingLast {
				b.WriteString(styles.SpinnerStyle.Render("▋"))
			}
		}
	}

	return b.String()
}
