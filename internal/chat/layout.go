package chat

const threadPanelWidth = 26

func (m *Model) mainWidth() int {
	if m.width == 0 {
		return 0
	}
	width := m.width - threadPanelWidth
	if width < 1 {
		width = 1
	}
	return width
}

// resize recomputes pane dimensions. One line each for the header and the
// status line, inputHeight rows for the textarea, the rest to the viewport.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	main := m.mainWidth()
	m.input.SetWidth(main - 2)

	vpHeight := m.height - inputHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = main
	m.viewport.Height = vpHeight
	m.ready = true
	m.refreshViewport(false)
}
