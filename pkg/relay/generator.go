package relay

import (
	"context"
	"fmt"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/config"
	"github.com/killallgit/oracle/pkg/stream"
)

// Generator produces the assistant reply for a conversation. Implementations
// call handler.OnChunk for each fragment in order, then OnComplete, or
// OnError when generation fails.
type Generator interface {
	Generate(ctx context.Context, model, apiKey string, messages []chat.Entry, handler stream.Handler) error
}

// NewGenerator builds the generator named by cfg.Generator.
func NewGenerator(cfg config.RelayConfig) (Generator, error) {
	switch cfg.Generator {
	case "", "echo":
		return NewEchoGenerator(cfg.EchoDelay), nil
	case "openai":
		return NewOpenAIGenerator(cfg.UpstreamURL), nil
	case "langchain":
		return NewLangChainGenerator(cfg.Backend, cfg.UpstreamURL)
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}
}
