package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desklinehq/deskline/internal/types"
)

// The session manager mutates threads from send goroutines, so the UI polls
// its snapshot instead of owning the state. Sends append the user turn
// before the network await, which makes it visible on the next tick.
const refreshInterval = 100 * time.Millisecond

type refreshMsg struct{}

func (m *Model) refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m *Model) handleRefreshMsg() (tea.Model, tea.Cmd) {
	m.refresh()
	return m, m.refreshCmd()
}

// refresh pulls the latest thread state from the manager and reconciles
// the rendered view and notification bookkeeping with it.
func (m *Model) refresh() {
	threads := m.manager.Threads()
	active := m.manager.ActiveIndex()
	m.notifyChanges(threads, active)
	m.threads = threads
	m.active = active
	m.syncInputPlaceholder()
	m.refreshViewport(false)
}

func (m *Model) activeThread() *types.Thread {
	if m.active < 0 || m.active >= len(m.threads) {
		return nil
	}
	return &m.threads[m.active]
}
