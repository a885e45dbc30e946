package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/oracle/pkg/controllers"
	"github.com/killallgit/oracle/pkg/tokens"
	"github.com/killallgit/oracle/pkg/tui/chat/status"
	"github.com/killallgit/oracle/pkg/tui/theme"
)

// Conversation is the part of the controller the view drives.
type Conversation interface {
	Submit(ctx context.Context, text string) error
	Cancel() bool
	Subscribe(fn func(controllers.Snapshot)) func()
	Snapshot() controllers.Snapshot
}

type Options struct {
	Title    string
	Markdown bool
	// Model selects the encoding for the token counts in the status bar.
	Model string
}

type chatModel struct {
	ctx          context.Context
	conversation Conversation
	snapshots    chan controllers.Snapshot
	unsubscribe  func()
	snapshot     controllers.Snapshot
	submitting   bool
	// cancelSubmit ends the pending submission, including before the
	// controller has picked it up.
	cancelSubmit context.CancelFunc

	viewport    viewport.Model
	textarea    textarea.Model
	statusBar   status.StatusModel
	counter     *tokens.Counter
	renderer    *glamour.TermRenderer
	styles      *theme.Styles
	title       string
	markdown    bool
	width       int
	height      int
	numEscPress int
}

// NewChatModel subscribes to conversation; snapshots reach the program
// through waitForSnapshot.
func NewChatModel(ctx context.Context, conversation Conversation, opts Options) chatModel {
	ta := textarea.New()
	ta.Focus()
	ta.Placeholder = "Ask about Bitcoin..."
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(true)

	snapshots := make(chan controllers.Snapshot, 1)

	m := chatModel{
		ctx:          ctx,
		conversation: conversation,
		snapshots:    snapshots,
		textarea:     ta,
		viewport:     viewport.New(80, 20),
		statusBar:    status.NewStatusModel(),
		counter:      tokens.NewCounter(opts.Model),
		styles:       theme.DefaultStyles(),
		title:        opts.Title,
		markdown:     opts.Markdown,
	}
	m.unsubscribe = conversation.Subscribe(func(s controllers.Snapshot) {
		deliver(snapshots, s)
	})
	m.snapshot = conversation.Snapshot()
	m.renderer = m.newRenderer(m.viewport.Width)
	m.updateViewportContent()
	return m
}

// deliver hands s to the view. An older snapshot the view has not picked up
// yet is replaced; snapshots are complete states, so only the latest matters.
// Observers are called one at a time, so the second send cannot block.
func deliver(ch chan controllers.Snapshot, s controllers.Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- s
}

func (m chatModel) busy() bool {
	return m.submitting || m.snapshot.Busy()
}
