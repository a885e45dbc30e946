package chat

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForSnapshot(m.snapshots))
}
