package chat

func (m *Model) refreshViewport(force bool) {
	if !m.ready {
		return
	}
	thread := m.activeThread()
	if thread == nil {
		m.viewport.SetContent("")
		return
	}

	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConversation(*thread))

	key := thread.ConversationID
	changed := m.renderedThread != key || m.renderedCount[key] != len(thread.Messages)
	m.renderedThread = key
	m.renderedCount[key] = len(thread.Messages)

	// Follow the conversation unless the user has scrolled up to read.
	if force || changed || wasAtBottom {
		m.viewport.GotoBottom()
	}
}
