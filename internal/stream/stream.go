// Package stream owns the WebSocket connection for the active
// conversation. At most one session is live at a time; switching
// conversations (or canceling a turn) tears the session down, and a
// torn-down session delivers no further events.
package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/avikale/ragline/internal/protocol"
)

// State of the connection.
type State int

const (
	Closed State = iota
	Connecting
	Open
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrNotOpen is returned by Send when the connection is not open.
var ErrNotOpen = errors.New("stream: connection not open")

// ErrTurnInProgress is returned by Send while a turn is streaming; the
// caller surfaces this by disabling submission, never by queuing.
var ErrTurnInProgress = errors.New("stream: turn already in progress")

// Handlers receive session activity. OnEvent is invoked from a single
// goroutine in receipt order, one event at a time. OnClose fires once,
// when the session ends; err is nil on a deliberate Close/Cancel.
type Handlers struct {
	OnEvent func(protocol.Event)
	OnClose func(err error)
}

// Session is one live connection to /ws/chat/{chat_id}.
type Session struct {
	ChatID string
	// Token identifies this session. Consumers stamp it onto messages
	// they emit from callbacks so anything outliving the session can be
	// recognized as stale and dropped.
	Token uuid.UUID

	handlers Handlers

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	streaming bool
	closed    bool
}

// outbound is the single frame shape the backend accepts.
type outbound struct {
	Message string `json:"message"`
}

// Dial opens a session for one conversation and starts the read loop.
// The initial history snapshot arrives through Handlers.OnEvent like
// any other event.
func Dial(ctx context.Context, wsURL, chatID string, handlers Handlers) (*Session, error) {
	s := &Session{
		ChatID:   chatID,
		Token:    uuid.New(),
		handlers: handlers,
		state:    Connecting,
	}

	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		s.mu.Lock()
		s.state = Closed
		s.mu.Unlock()
		return nil, errors.Wrapf(err, "dialing %s", wsURL)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = Open
	s.mu.Unlock()

	go s.readLoop()
	return s, nil
}

// State returns the connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Streaming reports whether a turn is in progress.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Send submits one human turn. Accepted only while the connection is
// open and no turn is streaming.
func (s *Session) Send(text string) error {
	s.mu.Lock()
	if s.state != Open {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.streaming {
		s.mu.Unlock()
		return ErrTurnInProgress
	}
	s.streaming = true
	conn := s.conn
	s.mu.Unlock()

	payload, err := json.Marshal(outbound{Message: text})
	if err != nil {
		return errors.Wrap(err, "marshaling message")
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.mu.Lock()
		s.streaming = false
		s.mu.Unlock()
		return errors.Wrap(err, "writing message")
	}
	return nil
}

// EndTurn marks the current turn finished. Called by the consumer when
// the post-turn history snapshot (or a turn error) arrives.
func (s *Session) EndTurn() {
	s.mu.Lock()
	s.streaming = false
	s.mu.Unlock()
}

// Cancel forcibly closes the connection mid-turn. There is no cancel
// frame in the protocol; closing the socket is the cancellation
// mechanism. Partial output already applied stays where it is.
func (s *Session) Cancel() {
	s.Close()
}

// Close tears the session down. After Close returns no further events
// are delivered, including ones already scheduled by the read loop.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.streaming = false
	s.state = Closed
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
}

// readLoop reads frames until the connection dies. Events are decoded
// and dispatched strictly in receipt order; unknown frames are dropped.
// Dispatch is gated on the closed flag so a Close while a frame is in
// flight suppresses it.
func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}

		ev, ok := protocol.Decode(data)
		if !ok {
			continue
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if s.handlers.OnEvent != nil {
			s.handlers.OnEvent(ev)
		}
	}
}

// finish reports the read loop's exit. A deliberate Close reports nil.
func (s *Session) finish(err error) {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.streaming = false
	s.state = Closed
	s.mu.Unlock()

	if s.handlers.OnClose == nil {
		return
	}
	if wasClosed {
		s.handlers.OnClose(nil)
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.handlers.OnClose(nil)
		return
	}
	s.handlers.OnClose(errors.Wrap(err, "reading stream"))
}
