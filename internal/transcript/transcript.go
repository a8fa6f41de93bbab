// Package transcript holds the reconstructed message list for one
// conversation. It is the single owner of that state: wire events are
// folded in one at a time, in receipt order, and the backend's history
// snapshots always replace the local view wholesale.
package transcript

import (
	"iter"
	"strings"
)

// Role of a transcript message.
type Role int

const (
	Human Role = iota
	Assistant
	Tool
)

// String returns a display name for the role.
func (r Role) String() string {
	switch r {
	case Human:
		return "human"
	case Assistant:
		return "assistant"
	case Tool:
		return "tool"
	}
	return "unknown"
}

// Message is one transcript entry.
type Message struct {
	Role Role
	Text string
}

// Transcript is an append-only sequence of messages. The only in-place
// mutation is growth of the last assistant message while a turn is
// streaming.
type Transcript struct {
	messages []Message
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// ApplyHistorySnapshot replaces the transcript with the server's
// authoritative message list. Applying the same snapshot twice yields
// the same transcript; prior local content is never merged in.
func (t *Transcript) ApplyHistorySnapshot(messages []Message) {
	t.messages = make([]Message, len(messages))
	copy(t.messages, messages)
}

// ApplyTokenDelta folds one assistant token fragment into the
// transcript: it grows the last message when that message is an
// assistant one, and opens a new assistant message otherwise. A delta
// arriving before any human turn still produces a valid (orphaned)
// assistant message. Empty deltas are no-ops.
func (t *Transcript) ApplyTokenDelta(text string) {
	if text == "" {
		return
	}
	if n := len(t.messages); n > 0 && t.messages[n-1].Role == Assistant {
		t.messages[n-1].Text += text
		return
	}
	t.messages = append(t.messages, Message{Role: Assistant, Text: text})
}

// AppendHuman appends the user's own message. This happens at submit
// time, before any server acknowledgment, and is never rolled back.
func (t *Transcript) AppendHuman(text string) {
	t.messages = append(t.messages, Message{Role: Human, Text: text})
}

// Len returns the number of messages, including ones Display filters out.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the final message and true, or a zero message and false
// when the transcript is empty.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Display yields the messages fit for rendering: tool entries and
// entries whose trimmed text is empty are skipped. The sequence is
// recomputed on every call, so callers can re-range it after each
// mutation.
func (t *Transcript) Display() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range t.messages {
			if m.Role == Tool {
				continue
			}
			if strings.TrimSpace(m.Text) == "" {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// DisplaySlice collects Display into a slice.
func (t *Transcript) DisplaySlice() []Message {
	var out []Message
	for m := range t.Display() {
		out = append(out, m)
	}
	return out
}
