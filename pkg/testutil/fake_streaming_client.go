package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
)

// Reply is one scripted answer. A non-nil Err fails the request after Text
// has been streamed.
type Reply struct {
	Text string
	Err  error
}

// FakeStreamingClient stands in for the endpoint client. Replies are served
// in order, cut into chunkSize byte pieces, so multibyte characters can be
// split across chunks.
type FakeStreamingClient struct {
	mu         sync.Mutex
	replies    []Reply
	requests   []chat.Request
	chunkDelay time.Duration
	chunkSize  int
}

// NewFakeStreamingClient creates a client answering with responses in order.
func NewFakeStreamingClient(responses ...string) *FakeStreamingClient {
	c := &FakeStreamingClient{chunkSize: 5}
	for _, r := range responses {
		c.replies = append(c.replies, Reply{Text: r})
	}
	return c
}

// AddReply queues another scripted answer.
func (c *FakeStreamingClient) AddReply(r Reply) *FakeStreamingClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, r)
	return c
}

func (c *FakeStreamingClient) Stream(ctx context.Context, req chat.Request, handler stream.Handler) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		c.mu.Unlock()
		err := errors.New("no replies configured")
		handler.OnError(err)
		return err
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	size, delay := c.chunkSize, c.chunkDelay
	c.mu.Unlock()

	handler.OnStart()
	data := []byte(reply.Text)
	for i := 0; i < len(data); i += size {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
		if err := ctx.Err(); err != nil {
			handler.OnError(err)
			return err
		}

		end := min(i+size, len(data))
		if err := handler.OnChunk(data[i:end]); err != nil {
			handler.OnError(err)
			return err
		}
	}

	if reply.Err != nil {
		handler.OnError(reply.Err)
		return reply.Err
	}
	return handler.OnComplete(reply.Text)
}

// Requests returns every request received so far.
func (c *FakeStreamingClient) Requests() []chat.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Request(nil), c.requests...)
}

// SetChunkDelay sets the delay before each chunk
func (c *FakeStreamingClient) SetChunkDelay(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunkDelay = delay
}

// SetChunkSize sets the number of bytes per chunk
func (c *FakeStreamingClient) SetChunkSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size > 0 {
		c.chunkSize = size
	}
}
