package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desklinehq/deskline/internal/session"
	"github.com/desklinehq/deskline/internal/types"
	"go.uber.org/zap"
)

const noticeDuration = 4 * time.Second

type sendDoneMsg struct {
	conversationID string
	err            error
}

type noticeExpireMsg struct {
	seq int
}

func (m *Model) handleSubmit() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}
	thread := m.activeThread()
	if thread == nil {
		return nil
	}
	if thread.Status == types.StatusHandoff {
		return m.setNotice("A human agent has this conversation; replies arrive by email")
	}
	if m.manager.InFlight(thread.ConversationID) {
		return m.setNotice("Still waiting on the previous reply")
	}

	m.input.Reset()
	m.syncInputPlaceholder()

	index := m.active
	conversationID := thread.ConversationID
	manager := m.manager
	logger := m.logger
	send := func() tea.Msg {
		err := manager.SendMessage(context.Background(), index, content)
		if err != nil {
			logger.Warn("send failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err))
		}
		return sendDoneMsg{conversationID: conversationID, err: err}
	}
	return tea.Batch(send, m.spinner.Tick)
}

func (m *Model) handleSendDoneMsg(msg sendDoneMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	if msg.err == nil {
		return m, nil
	}
	if errors.Is(msg.err, session.ErrSendInFlight) {
		return m, m.setNotice("Still waiting on the previous reply")
	}
	return m, m.setNotice("Send failed; the error is noted in the conversation")
}

// setNotice shows a transient message in the status line. The sequence
// number keeps a stale expiry from wiping a newer notice.
func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpireMsg{seq: seq}
	})
}

func (m *Model) handleNoticeExpireMsg(msg noticeExpireMsg) (tea.Model, tea.Cmd) {
	if msg.seq == m.noticeSeq {
		m.notice = ""
	}
	return m, nil
}
