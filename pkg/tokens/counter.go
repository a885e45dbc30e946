package tokens

import (
	"strings"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/logger"
	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens with the encoding of a model family. Without a codec
// it falls back to an estimate.
type Counter struct {
	codec    tokenizer.Codec
	encoding tokenizer.Encoding
}

// NewCounter picks the encoding for model. Unknown models use cl100k_base.
func NewCounter(model string) *Counter {
	encoding := encodingForModel(model)
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		logger.WithComponent("tokens").Warn("Using estimated token counts",
			"model", model,
			"encoding", string(encoding),
			"error", err.Error())
		return &Counter{encoding: encoding}
	}
	return &Counter{codec: codec, encoding: encoding}
}

func (c *Counter) Encoding() string {
	return string(c.encoding)
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.codec == nil {
		return estimateTokens(text)
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

// CountEntries approximates the prompt size of a conversation: each entry
// carries its role and a few boundary tokens, and the reply is primed with
// three more.
func (c *Counter) CountEntries(entries []chat.Entry) int {
	if len(entries) == 0 {
		return 0
	}
	total := 3
	for _, e := range entries {
		total += c.Count(string(e.Role)) + c.Count(e.Content) + 4
	}
	return total
}

func encodingForModel(model string) tokenizer.Encoding {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "gpt-4.1"), strings.HasPrefix(m, "gpt-5"),
		strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return tokenizer.O200kBase
	case strings.Contains(m, "davinci"), strings.Contains(m, "curie"), strings.Contains(m, "code"):
		return tokenizer.P50kBase
	default:
		return tokenizer.Cl100kBase
	}
}

// estimateTokens takes the larger of the word count and a quarter of the
// byte length.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	chars := len(text) / 4
	if words > chars {
		return words
	}
	return chars
}
