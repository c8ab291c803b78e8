package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desklinehq/deskline/internal/session"
	"github.com/desklinehq/deskline/internal/types"
	"go.uber.org/zap"
)

// Options configure chat.
type Options struct {
	Manager   *session.Manager
	Principal types.Principal
	ServerURL string
	Logger    *zap.Logger
}

// Run starts the chat UI.
func Run(opts Options) error {
	model := NewModel(opts)

	// Set window title (ANSI OSC sequence)
	title := "deskline"
	if opts.Principal.Email != "" {
		title = "deskline · " + opts.Principal.Email
	}
	fmt.Printf("\033]0;%s\007", title)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}

// Model implements the chat UI.
type Model struct {
	manager   *session.Manager
	principal types.Principal
	serverURL string
	logger    *zap.Logger

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	threads []types.Thread
	active  int

	width  int
	height int
	ready  bool

	notice    string
	noticeSeq int

	// Scroll bookkeeping: jump to bottom when the rendered thread or its
	// message count changes, otherwise respect the user's scroll position.
	renderedThread string
	renderedCount  map[string]int

	// Notification bookkeeping per conversation ID.
	seenReplies map[string]int
	seenStatus  map[string]types.ThreadStatus

	quitting bool
}

// NewModel creates a chat model over an already bootstrapped session.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	input := newInputModel()
	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	model := &Model{
		manager:       opts.Manager,
		principal:     opts.Principal,
		serverURL:     opts.ServerURL,
		logger:        logger,
		viewport:      vp,
		input:         input,
		spinner:       sp,
		renderedCount: make(map[string]int),
		seenReplies:   make(map[string]int),
		seenStatus:    make(map[string]types.ThreadStatus),
	}
	model.threads = opts.Manager.Threads()
	model.active = opts.Manager.ActiveIndex()
	model.primeSeen()
	return model
}

// primeSeen records current reply counts and statuses so restored history
// does not fire a burst of notifications on startup.
func (m *Model) primeSeen() {
	for _, thread := range m.threads {
		m.seenReplies[thread.ConversationID] = countAssistantMessages(thread.Messages)
		m.seenStatus[thread.ConversationID] = thread.Status
	}
}

func countAssistantMessages(messages []types.Message) int {
	count := 0
	for _, msg := range messages {
		if msg.Role == types.RoleAssistant {
			count++
		}
	}
	return count
}
