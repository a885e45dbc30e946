package status

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m StatusModel, msg tea.Msg) (StatusModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	result, ok := updated.(StatusModel)
	require.True(t, ok)
	return result, cmd
}

func TestStatusBarInactive(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	m, _ := update(t, NewStatusModel(), tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.False(t, m.IsActive())
	assert.Empty(t, m.View())
}

func TestStatusBarLifecycle(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	m, _ := update(t, NewStatusModel(), tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := update(t, m, StartMsg{Status: "Sending"})
	assert.NotNil(t, cmd)
	assert.True(t, m.IsActive())
	assert.Contains(t, m.View(), "Sending")
	assert.Contains(t, m.View(), "esc to cancel")

	m, _ = update(t, m, SetStatusMsg{Status: "Streaming"})
	assert.Equal(t, "Streaming", m.Status())
	assert.Contains(t, m.View(), "Streaming")

	m, _ = update(t, m, UpdateTokensMsg{Sent: 12, Recv: 3})
	assert.Contains(t, m.View(), "↑ 12 ↓ 3 tokens")

	m.startTime = time.Now().Add(-65 * time.Second)
	m, cmd = update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "01:05")

	m, _ = update(t, m, StopMsg{})
	assert.False(t, m.IsActive())
	assert.Empty(t, m.View())

	m, _ = update(t, m, StartMsg{Status: "Sending"})
	sent, recv := m.Tokens()
	assert.Zero(t, sent)
	assert.Zero(t, recv)
	assert.NotContains(t, m.View(), "tokens")

	_, cmd = update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd, "an active bar keeps ticking")

	m, _ = update(t, m, StopMsg{})
	_, cmd = update(t, m, TickMsg(time.Now()))
	assert.Nil(t, cmd, "a stopped bar stops ticking")
}

func TestStatusModelIsTeaModel(t *testing.T) {
	var model tea.Model = NewStatusModel()
	assert.Nil(t, model.Init())
}

func TestStatusBarHiddenWithoutWidth(t *testing.T) {
	m, _ := update(t, NewStatusModel(), StartMsg{Status: "Sending"})
	assert.Empty(t, m.View())
}
