package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case refreshMsg:
		return m.handleRefreshMsg()
	case sendDoneMsg:
		return m.handleSendDoneMsg(msg)
	case noticeExpireMsg:
		return m.handleNoticeExpireMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m.updateInput(msg)
}

func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.resize()
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		return m, m.handleSubmit()
	case "ctrl+j":
		m.input.InsertString("\n")
		return m, nil
	case "ctrl+n":
		m.manager.CreateThread()
		m.refresh()
		return m, nil
	case "ctrl+d":
		return m.handleDeleteThread()
	case "alt+up":
		return m.handleSelectThread(m.active - 1)
	case "alt+down":
		return m.handleSelectThread(m.active + 1)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "home":
		m.viewport.GotoTop()
		return m, nil
	case "end":
		m.viewport.GotoBottom()
		return m, nil
	case "ctrl+y":
		return m.handleCopyReturnLabel()
	case "esc":
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		m.input.Reset()
		return m, nil
	}

	if target, ok := strings.CutPrefix(key, "alt+"); ok && len(target) == 1 {
		if n, err := strconv.Atoi(target); err == nil && n >= 1 {
			return m.handleSelectThread(n - 1)
		}
	}

	if len(key) == 1 && key >= "1" && key <= "9" {
		n, _ := strconv.Atoi(key)
		if m.insertButtonValue(n) {
			return m, nil
		}
	}

	return m.updateInput(msg)
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectThread(index int) (tea.Model, tea.Cmd) {
	if index < 0 || index >= len(m.threads) {
		return m, nil
	}
	if err := m.manager.SelectThread(index); err != nil {
		return m, nil
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) handleDeleteThread() (tea.Model, tea.Cmd) {
	thread := m.activeThread()
	if thread == nil {
		return m, nil
	}
	title := thread.Title
	if err := m.manager.DeleteThread(m.active); err != nil {
		return m, nil
	}
	m.refresh()
	return m, m.setNotice("Deleted " + title)
}

func (m *Model) handleCopyReturnLabel() (tea.Model, tea.Cmd) {
	thread := m.activeThread()
	if thread == nil {
		return m, nil
	}
	url := latestReturnLabelURL(*thread)
	if url == "" {
		return m, m.setNotice("No return label in this conversation")
	}
	if err := copyToClipboard(url); err != nil {
		return m, m.setNotice("Copy failed: " + err.Error())
	}
	return m, m.setNotice("Return label link copied")
}

func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
