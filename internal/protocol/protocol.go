// Package protocol decodes the backend's chat stream wire format: one
// JSON object per WebSocket message, discriminated by a "type" field.
// Decoding is side-effect free and forward compatible; payloads the
// client does not understand are discarded rather than surfaced.
package protocol

import (
	"encoding/json"
	"strings"

	"github.com/avikale/ragline/internal/transcript"
)

// Event is one decoded stream event.
type Event interface {
	isEvent()
}

// HistorySnapshot carries the server's authoritative transcript. It is
// sent on connect and again after every completed turn.
type HistorySnapshot struct {
	Messages []transcript.Message
}

// TokenDelta is an incremental fragment of the current assistant turn.
type TokenDelta struct {
	Text string
}

// ToolTokenDelta is an incremental fragment of tool output. It is
// routed to a side buffer, never to the transcript.
type ToolTokenDelta struct {
	Text string
}

// NodeStart marks the start of a named backend processing stage.
type NodeStart struct {
	Name string
}

// NodeEnd marks the end of a named backend processing stage.
type NodeEnd struct {
	Name string
}

// ToolStart marks the start of a named tool invocation.
type ToolStart struct {
	Name string
}

// ToolEnd marks the end of a named tool invocation.
type ToolEnd struct {
	Name string
}

// StreamError is a non-fatal error reported by the backend for the
// current turn.
type StreamError struct {
	Message string
}

func (HistorySnapshot) isEvent() {}
func (TokenDelta) isEvent()      {}
func (ToolTokenDelta) isEvent()  {}
func (NodeStart) isEvent()       {}
func (NodeEnd) isEvent()         {}
func (ToolStart) isEvent()       {}
func (ToolEnd) isEvent()         {}
func (StreamError) isEvent()     {}

// wireMessage mirrors the backend's serialized message shape. Content
// is kept raw because the backend occasionally stores structured
// content; anything that is not a plain string degrades to its literal
// JSON text so something still renders.
type wireMessage struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type wireEvent struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Token    string          `json:"token"`
	Content  string          `json:"content"`
	Messages []wireMessage   `json:"messages"`
}

// Decode parses one wire payload into an event. The second return is
// false when the payload is malformed or of an unknown kind; such
// payloads must be ignored by the caller.
func Decode(data []byte) (Event, bool) {
	var we wireEvent
	if err := json.Unmarshal(data, &we); err != nil {
		return nil, false
	}

	switch we.Type {
	case "history":
		return HistorySnapshot{Messages: normalizeMessages(we.Messages)}, true

	case "token":
		text := we.deltaText()
		if text == "" {
			return nil, false
		}
		return TokenDelta{Text: text}, true

	case "tool_token":
		text := we.deltaText()
		if text == "" {
			return nil, false
		}
		return ToolTokenDelta{Text: text}, true

	case "node_start":
		return NodeStart{Name: we.dataString()}, true
	case "node_end":
		return NodeEnd{Name: we.dataString()}, true
	case "tool_start":
		return ToolStart{Name: we.dataString()}, true
	case "tool_end":
		return ToolEnd{Name: we.dataString()}, true

	case "error":
		// The WS handler reports its own failures in "content"; errors
		// forwarded from the agent layer arrive in "data".
		message := we.Content
		if message == "" {
			message = we.dataString()
		}
		return StreamError{Message: message}, true
	}

	return nil, false
}

// deltaText returns the delta payload, which older backend versions put
// in "token" instead of "data".
func (we *wireEvent) deltaText() string {
	if s := we.dataString(); s != "" {
		return s
	}
	return we.Token
}

func (we *wireEvent) dataString() string {
	var s string
	if err := json.Unmarshal(we.Data, &s); err != nil {
		return ""
	}
	return s
}

// normalizeMessages maps serialized backend messages to transcript
// shape. Tool messages are dropped outright; any role that is not
// recognizably human maps to assistant.
func normalizeMessages(messages []wireMessage) []transcript.Message {
	out := make([]transcript.Message, 0, len(messages))
	for _, wm := range messages {
		if wm.Type == "ToolMessage" {
			continue
		}
		role := transcript.Assistant
		if wm.Type == "HumanMessage" {
			role = transcript.Human
		}
		out = append(out, transcript.Message{Role: role, Text: contentText(wm.Content)})
	}
	return out
}

// contentText extracts message text. Content that is not a JSON string
// is rendered literally rather than discarded.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
