package session

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.dalton.dog/bubbleup"

	"github.com/avikale/ragline/chat/styles"
	"github.com/avikale/ragline/internal/api"
	"github.com/avikale/ragline/internal/configuration"
	"github.com/avikale/ragline/internal/debug"
	"github.com/avikale/ragline/internal/follow"
	"github.com/avikale/ragline/internal/history"
	"github.com/avikale/ragline/internal/markdown"
	"github.com/avikale/ragline/internal/sched"
	"github.com/avikale/ragline/internal/status"
	"github.com/avikale/ragline/internal/stream"
	"github.com/avikale/ragline/internal/transcript"
)

var log = debug.GetLogger()

// Model represents the Bubble Tea model for the chat session.
type Model struct {
	// Core dependencies
	ctx    context.Context
	config *configuration.Config
	api    *api.Client

	// Conversation identity
	chatID      string
	chatName    string
	modelName   string
	sourceCount int

	// Connection state. The token identifies the live session; events
	// stamped with any other token are stale and dropped. pendingInput
	// holds a message submitted while no session was up: it goes out
	// once the fresh session's history snapshot has been applied.
	session         *stream.Session
	sessionToken    uuid.UUID
	connecting      bool
	snapshotApplied bool
	pendingInput    string

	// Conversation state
	transcript     *transcript.Transcript
	status         *status.Tracker
	follow         *follow.Controller
	toolOutput     strings.Builder
	showToolOutput bool

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer

	// UI state
	width          int
	height         int
	ready          bool
	streaming      bool
	firstTokenSeen bool
	err            error
	quitting       bool
	windowFocused  bool

	// Alert notifications.
	alertClipboardWrite bubbleup.AlertModel

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates a new chat session model.
func New(
	ctx context.Context,
	config *configuration.Config,
	client *api.Client,
	chatID, chatName, modelName string,
	sourceCount int,
) (*Model, error) {
	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Ctrl+J to send, Alt+P/N for history, Alt+T for tool output, Ctrl+C to quit)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	// Create spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	alertClipboardWrite := bubbleup.NewAlertModel(25, true, 1)

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ctx:                 ctx,
		config:              config,
		api:                 client,
		chatID:              chatID,
		chatName:            chatName,
		modelName:           modelName,
		sourceCount:         sourceCount,
		windowFocused:       true,
		transcript:          transcript.New(),
		follow:              follow.New(sched.Real()),
		textarea:            ta,
		spinner:             sp,
		renderer:            renderer,
		history:             history.NewHistory(),
		alertClipboardWrite: *alertClipboardWrite,
	}
	m.status = status.NewTracker(sched.Real(), func() {
		if p := m.getProgram(); p != nil {
			p.Send(statusChangedMsg{})
		}
	})
	return m, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alertClipboardWrite.Init(),
		m.connect(),
	)
}
