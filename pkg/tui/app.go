package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/oracle/pkg/tui/chat"
)

// StartApp runs the full-screen chat view until the user quits or ctx ends.
func StartApp(ctx context.Context, conversation chat.Conversation, opts chat.Options) error {
	p := tea.NewProgram(
		chat.NewChatModel(ctx, conversation, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat view failed: %w", err)
	}
	return nil
}
