package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyMsg(m chatModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cancelInFlight()
		m.unsubscribe()
		return m, tea.Quit

	case tea.KeyEscape:
		if m.busy() {
			m.cancelInFlight()
			return m, nil
		}
		m.numEscPress++
		if m.numEscPress == 2 {
			m.textarea.Reset()
			m.numEscPress = 0
			m.resizeInput()
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		if msg.Alt {
			if m.busy() {
				return m, nil
			}
			m.textarea.InsertString("\n")
			m.resizeInput()
			return m, nil
		}
		if m.busy() {
			return m, nil
		}
		text := m.textarea.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.textarea.Reset()
		m.resizeInput()
		m.submitting = true
		m.textarea.Blur()
		m.viewport.GotoBottom()
		ctx, cancel := context.WithCancel(m.ctx)
		m.cancelSubmit = cancel
		return m, m.submit(ctx, cancel, text)
	}

	// input is disabled while a response is in flight
	if m.busy() {
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.resizeInput()

	return m, cmd
}
