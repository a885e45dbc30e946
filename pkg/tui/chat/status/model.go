package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/oracle/pkg/tui/theme"
)

// StatusModel is the one-line activity bar shown while a response is in
// flight.
type StatusModel struct {
	spinner    spinner.Model
	status     string        // "Sending", "Streaming"
	timer      time.Duration // Elapsed time
	tokensSent int
	tokensRecv int
	startTime  time.Time
	isActive   bool
	width      int
}

// NewStatusModel creates a new status bar model
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorViolet)

	return StatusModel{
		spinner: s,
	}
}

func (m StatusModel) Init() tea.Cmd {
	return nil
}

func (m StatusModel) IsActive() bool {
	return m.isActive
}

func (m StatusModel) Status() string {
	return m.status
}

func (m StatusModel) Tokens() (sent, recv int) {
	return m.tokensSent, m.tokensRecv
}

var _ tea.Model = StatusModel{}
