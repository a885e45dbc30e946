package relay

import (
	"context"
	"fmt"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelFactory creates the langchaingo model for one request.
type ModelFactory func(model, apiKey string) (llms.Model, error)

// LangChainGenerator streams replies through any langchaingo llms.Model.
type LangChainGenerator struct {
	newModel ModelFactory
}

// NewLangChainGenerator selects the langchaingo backend: "openai" or
// "ollama". baseURL may be empty to use the backend's default.
func NewLangChainGenerator(backend, baseURL string) (*LangChainGenerator, error) {
	switch backend {
	case "", "openai":
		return NewLangChainGeneratorWithFactory(func(model, apiKey string) (llms.Model, error) {
			opts := []openai.Option{openai.WithModel(model), openai.WithToken(apiKey)}
			if baseURL != "" {
				opts = append(opts, openai.WithBaseURL(baseURL))
			}
			return openai.New(opts...)
		}), nil
	case "ollama":
		return NewLangChainGeneratorWithFactory(func(model, _ string) (llms.Model, error) {
			opts := []ollama.Option{ollama.WithModel(model)}
			if baseURL != "" {
				opts = append(opts, ollama.WithServerURL(baseURL))
			}
			return ollama.New(opts...)
		}), nil
	default:
		return nil, fmt.Errorf("unknown langchain backend %q", backend)
	}
}

func NewLangChainGeneratorWithFactory(factory ModelFactory) *LangChainGenerator {
	return &LangChainGenerator{newModel: factory}
}

func (g *LangChainGenerator) Generate(ctx context.Context, model, apiKey string, messages []chat.Entry, handler stream.Handler) error {
	llm, err := g.newModel(model, apiKey)
	if err != nil {
		err = fmt.Errorf("failed to create model: %w", err)
		handler.OnError(err)
		return err
	}

	resp, err := llm.GenerateContent(ctx, buildMessageContent(messages),
		llms.WithStreamingFunc(stream.ToStreamingFunc(handler)))
	if err != nil {
		err = fmt.Errorf("generation failed: %w", err)
		// the streaming func already reported a cancelled context
		if ctx.Err() == nil {
			handler.OnError(err)
		}
		return err
	}

	final := ""
	if len(resp.Choices) > 0 {
		final = resp.Choices[0].Content
	}
	return handler.OnComplete(final)
}

func buildMessageContent(messages []chat.Entry) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var msgType llms.ChatMessageType
		switch m.Role {
		case chat.RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case chat.RoleUser:
			msgType = llms.ChatMessageTypeHuman
		case chat.RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			continue
		}
		content = append(content, llms.TextParts(msgType, m.Content))
	}
	return content
}
