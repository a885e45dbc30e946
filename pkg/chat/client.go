package chat

import (
	"encoding/json"
	"fmt"
)

// Request is the body posted to the chat endpoint.
type Request struct {
	DeveloperMessage string `json:"developer_message"`
	UserMessage      string `json:"user_message"`
	Model            string `json:"model"`
	APIKey           string `json:"api_key"`
}

// ContextMessage is a transcript entry reduced to what the endpoint sees.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RequestContext is the conversation history sent with every request.
// System entries never appear in it.
type RequestContext []ContextMessage

// BuildRequestContext collects the user and assistant entries of t in order.
func BuildRequestContext(t Transcript) RequestContext {
	history := make(RequestContext, 0, t.Len())
	for _, e := range t.entries {
		if e.IsUser() || e.IsAssistant() {
			history = append(history, ContextMessage{Role: e.Role, Content: e.Content})
		}
	}
	return history
}

// Encode serializes the context as a JSON array string.
func (rc RequestContext) Encode() (string, error) {
	if rc == nil {
		rc = RequestContext{}
	}
	data, err := json.Marshal(rc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request context: %w", err)
	}
	return string(data), nil
}

// Entries converts the context back into transcript entries.
func (rc RequestContext) Entries() []Entry {
	entries := make([]Entry, 0, len(rc))
	for _, m := range rc {
		entries = append(entries, Entry{Role: m.Role, Content: m.Content})
	}
	return entries
}

// DecodeRequestContext parses a user_message payload. Only user and
// assistant roles are accepted.
func DecodeRequestContext(payload string) (RequestContext, error) {
	var raw []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request context: %w", err)
	}

	rc := make(RequestContext, 0, len(raw))
	for i, m := range raw {
		role, ok := ParseRole(m.Role)
		if !ok || role == RoleSystem {
			return nil, fmt.Errorf("message %d has unsupported role %q", i, m.Role)
		}
		rc = append(rc, ContextMessage{Role: role, Content: m.Content})
	}
	return rc, nil
}

// NewRequest builds the endpoint request for the given history.
func NewRequest(developerMessage, model, apiKey string, history RequestContext) (Request, error) {
	userMessage, err := history.Encode()
	if err != nil {
		return Request{}, err
	}
	return Request{
		DeveloperMessage: developerMessage,
		UserMessage:      userMessage,
		Model:            model,
		APIKey:           apiKey,
	}, nil
}
