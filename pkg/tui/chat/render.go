package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/killallgit/oracle/pkg/chat"
)

func (m chatModel) newRenderer(width int) *glamour.TermRenderer {
	if !m.markdown {
		return nil
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m chatModel) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var rendered []string
	for _, entry := range m.snapshot.Transcript.Entries() {
		rendered = append(rendered, m.renderEntry(entry, width))
	}
	return strings.Join(rendered, "\n\n")
}

func (m chatModel) renderEntry(entry chat.Entry, width int) string {
	switch entry.Role {
	case chat.RoleSystem:
		return m.styles.SystemMessage.Width(width).Render(entry.Content)
	case chat.RoleUser:
		return m.styles.UserLabel.Render("You") + "\n" +
			m.styles.UserMessage.Width(width).Render(entry.Content)
	case chat.RoleAssistant:
		return m.styles.AssistantLabel.Render("Oracle") + "\n" +
			m.renderMarkdown(entry.Content, width)
	default:
		return entry.Content
	}
}

// renderMarkdown renders assistant content, falling back to plain text when
// markdown is off or the content cannot be rendered.
func (m chatModel) renderMarkdown(content string, width int) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return m.styles.AssistantMessage.Width(width).Render(content)
}

func (m *chatModel) updateViewportContent() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
