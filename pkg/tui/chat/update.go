package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/controllers"
	"github.com/killallgit/oracle/pkg/logger"
	"github.com/killallgit/oracle/pkg/tui/chat/status"
)

type (
	snapshotMsg   controllers.Snapshot
	submitDoneMsg struct{ err error }
)

// waitForSnapshot blocks until the controller publishes the next snapshot.
func waitForSnapshot(ch <-chan controllers.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

// submit runs the whole exchange off the update loop; progress arrives as
// snapshots while it runs.
func (m chatModel) submit(ctx context.Context, cancel context.CancelFunc, text string) tea.Cmd {
	conversation := m.conversation
	return func() tea.Msg {
		defer cancel()
		return submitDoneMsg{err: conversation.Submit(ctx, text)}
	}
}

// cancelInFlight aborts the running or pending submission.
func (m *chatModel) cancelInFlight() {
	m.conversation.Cancel()
	if m.cancelSubmit != nil {
		m.cancelSubmit()
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg.Width, msg.Height)
		statusModel, _ := m.statusBar.Update(msg)
		m.statusBar = statusModel.(status.StatusModel)

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case snapshotMsg:
		cmd := m.applySnapshot(controllers.Snapshot(msg))
		return m, tea.Batch(cmd, waitForSnapshot(m.snapshots))

	case submitDoneMsg:
		m.submitting = false
		m.cancelSubmit = nil
		if msg.err != nil && !errors.Is(msg.err, controllers.ErrCancelled) {
			logger.WithComponent("tui").Debug("Submission ended with error", "error", msg.err.Error())
		}
		return m, m.syncInput()

	default:
		statusModel, statusCmd := m.statusBar.Update(msg)
		m.statusBar = statusModel.(status.StatusModel)
		cmds = append(cmds, statusCmd)

		var tiCmd tea.Cmd
		m.textarea, tiCmd = m.textarea.Update(msg)
		cmds = append(cmds, tiCmd)

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// applySnapshot moves the view to the controller's latest state.
func (m *chatModel) applySnapshot(s controllers.Snapshot) tea.Cmd {
	prev := m.snapshot
	m.snapshot = s

	var cmd tea.Cmd
	switch {
	case s.Busy() && !prev.Busy():
		var statusModel tea.Model
		statusModel, cmd = m.statusBar.Update(status.StartMsg{Status: statusText(s.State)})
		m.statusBar = statusModel.(status.StatusModel)
	case s.Busy() && s.State != prev.State:
		statusModel, _ := m.statusBar.Update(status.SetStatusMsg{Status: statusText(s.State)})
		m.statusBar = statusModel.(status.StatusModel)
	case !s.Busy() && prev.Busy():
		statusModel, _ := m.statusBar.Update(status.StopMsg{})
		m.statusBar = statusModel.(status.StatusModel)
	}

	if s.Busy() {
		sent, recv := m.countTokens(s)
		statusModel, _ := m.statusBar.Update(status.UpdateTokensMsg{Sent: sent, Recv: recv})
		m.statusBar = statusModel.(status.StatusModel)
	}

	m.updateViewportContent()
	return tea.Batch(cmd, m.syncInput())
}

// countTokens splits the transcript at the latest user entry: everything up
// to it was sent, the reply after it is being received.
func (m *chatModel) countTokens(s controllers.Snapshot) (sent, recv int) {
	entries := s.Transcript.Entries()
	last := -1
	for i, e := range entries {
		if e.IsUser() {
			last = i
		}
	}
	if last < 0 {
		return 0, 0
	}

	var history []chat.Entry
	for _, e := range entries[:last+1] {
		if !e.IsSystem() {
			history = append(history, e)
		}
	}
	sent = m.counter.CountEntries(history)
	for _, e := range entries[last+1:] {
		if e.IsAssistant() {
			recv += m.counter.Count(e.Content)
		}
	}
	return sent, recv
}

// syncInput enables the input only while nothing is in flight.
func (m *chatModel) syncInput() tea.Cmd {
	if m.busy() {
		m.textarea.Blur()
		return nil
	}
	if !m.textarea.Focused() {
		return m.textarea.Focus()
	}
	return nil
}

func statusText(state controllers.State) string {
	switch state {
	case controllers.StateSending:
		return "Sending"
	case controllers.StateStreaming:
		return "Streaming"
	default:
		return ""
	}
}
