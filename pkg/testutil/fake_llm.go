package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// FakeLLM is a langchaingo model that replays scripted replies. Each reply
// is streamed part by part through the streaming func of the call options.
type FakeLLM struct {
	mu           sync.Mutex
	replies      [][]string
	currentIndex int
	callCount    int
	lastMessages []llms.MessageContent
	errorOnCall  int // If > 0, fail this call after streaming its reply
	errorMessage string
}

// NewFakeLLM creates a fake whose replies cycle in order.
func NewFakeLLM(replies ...[]string) *FakeLLM {
	return &FakeLLM{replies: replies}
}

func (f *FakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *FakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.callCount++
	f.lastMessages = messages
	call := f.callCount
	if len(f.replies) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("no replies configured")
	}
	reply := f.replies[f.currentIndex]
	f.currentIndex = (f.currentIndex + 1) % len(f.replies)
	failing := f.errorOnCall > 0 && call == f.errorOnCall
	errorMessage := f.errorMessage
	f.mu.Unlock()

	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	for _, part := range reply {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(part)); err != nil {
				return nil, err
			}
		}
	}

	if failing {
		if errorMessage == "" {
			errorMessage = fmt.Sprintf("fake error on call %d", call)
		}
		return nil, fmt.Errorf("%s", errorMessage)
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: strings.Join(reply, "")}},
	}, nil
}

// SetErrorOnCall makes call number callNumber fail after its reply.
func (f *FakeLLM) SetErrorOnCall(callNumber int, errorMessage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorOnCall = callNumber
	f.errorMessage = errorMessage
}

func (f *FakeLLM) GetCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

// GetLastMessages returns the messages of the latest call.
func (f *FakeLLM) GetLastMessages() []llms.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMessages
}
