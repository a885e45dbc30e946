package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
)

// EchoGenerator answers without any model: it repeats the latest user entry
// back word by word. Useful for running the client without credentials.
type EchoGenerator struct {
	delay time.Duration
}

func NewEchoGenerator(delay time.Duration) *EchoGenerator {
	return &EchoGenerator{delay: delay}
}

func (g *EchoGenerator) Generate(ctx context.Context, model, apiKey string, messages []chat.Entry, handler stream.Handler) error {
	reply := echoReply(model, messages)

	var full strings.Builder
	for i, word := range strings.SplitAfter(reply, " ") {
		if i > 0 && g.delay > 0 {
			select {
			case <-ctx.Done():
				handler.OnError(ctx.Err())
				return ctx.Err()
			case <-time.After(g.delay):
			}
		}
		full.WriteString(word)
		if err := handler.OnChunk([]byte(word)); err != nil {
			handler.OnError(err)
			return err
		}
	}
	return handler.OnComplete(full.String())
}

func echoReply(model string, messages []chat.Entry) string {
	var last string
	turns := 0
	for _, m := range messages {
		if m.IsUser() {
			last = strings.TrimSpace(m.Content)
			turns++
		}
	}
	if last == "" {
		return "Ask me anything about Bitcoin."
	}
	return fmt.Sprintf("[%s, turn %d] You said: %s", model, turns, last)
}
