package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator streams replies from the OpenAI Chat Completions API.
// A client is built per request because the credential travels with it.
type OpenAIGenerator struct {
	baseURL string
}

// NewOpenAIGenerator creates a generator. An empty baseURL uses the public
// API; any OpenAI-compatible server works otherwise.
func NewOpenAIGenerator(baseURL string) *OpenAIGenerator {
	return &OpenAIGenerator{baseURL: baseURL}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, model, apiKey string, messages []chat.Entry, handler stream.Handler) error {
	if err := g.generate(ctx, model, apiKey, messages, handler); err != nil {
		handler.OnError(err)
		return err
	}
	return nil
}

func (g *OpenAIGenerator) generate(ctx context.Context, model, apiKey string, messages []chat.Entry, handler stream.Handler) error {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if g.baseURL != "" {
		opts = append(opts, option.WithBaseURL(g.baseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildOpenAIMessages(messages),
	}

	var full strings.Builder
	completion := client.Chat.Completions.NewStreaming(ctx, params)
	defer completion.Close()

	for completion.Next() {
		chunk := completion.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := handler.OnChunk([]byte(delta)); err != nil {
			return err
		}
	}
	if err := completion.Err(); err != nil {
		return fmt.Errorf("openai streaming error: %w", err)
	}
	return handler.OnComplete(full.String())
}

func buildOpenAIMessages(messages []chat.Entry) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			result = append(result, openai.UserMessage(m.Content))
		case chat.RoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		}
	}
	return result
}
