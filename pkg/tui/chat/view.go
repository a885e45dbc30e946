package chat

import (
	"strings"
)

func (m chatModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if msg := m.snapshot.ErrorMessage(); msg != "" {
		b.WriteString(m.styles.ErrorMessage.Render("Error: " + msg))
	}
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())
	b.WriteString("\n")

	input := m.styles.InputFocused
	if m.busy() {
		input = m.styles.InputDisabled
	}
	b.WriteString(input.Render(m.textarea.View()))

	return b.String()
}
