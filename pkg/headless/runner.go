package headless

import (
	"context"
	"fmt"
	"strings"

	"github.com/killallgit/oracle/pkg/controllers"
	"github.com/killallgit/oracle/pkg/logger"
)

// Conversation is the part of the controller line mode drives.
type Conversation interface {
	Submit(ctx context.Context, text string) error
	Subscribe(fn func(controllers.Snapshot)) func()
}

// runner runs the chat in line mode
type runner struct {
	conversation Conversation
	output       *Output
}

func newRunner(conversation Conversation, output *Output) *runner {
	return &runner{
		conversation: conversation,
		output:       output,
	}
}

// run submits one prompt and prints the reply as it streams in
func (r *runner) run(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return nil
	}

	printer := newTranscriptPrinter(r.output)
	unsubscribe := r.conversation.Subscribe(printer.observe)
	defer unsubscribe()

	logger.Debug("User prompt: %s", prompt)

	err := r.conversation.Submit(ctx, prompt)
	printer.finish()
	if err != nil {
		return fmt.Errorf("failed to execute prompt: %w", err)
	}

	logger.Debug("Response complete (chars printed: %d)", printer.printed)
	return nil
}
