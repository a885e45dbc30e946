package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
)

// ErrNoResponseBody is returned when a successful response carries no body
// to stream from.
var ErrNoResponseBody = errors.New("no response body")

const (
	readBufferSize   = 4096
	maxErrorBodySize = 2048
)

// StatusError reports a non-success HTTP status from the endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
}

// Client posts chat requests and streams the plain-text response body.
type Client struct {
	url        string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds the whole exchange, including reading the stream.
// Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a client for the absolute endpoint URL.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

// Stream sends req and feeds the response body to handler as it arrives.
// The returned error, if any, has already been passed to handler.OnError.
func (c *Client) Stream(ctx context.Context, req chat.Request, handler stream.Handler) error {
	if err := c.stream(ctx, req, handler); err != nil {
		handler.OnError(err)
		return err
	}
	return nil
}

func (c *Client) stream(ctx context.Context, req chat.Request, handler stream.Handler) error {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain, */*")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.Body == nil {
		return ErrNoResponseBody
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return ErrNoResponseBody
	}

	handler.OnStart()

	var full strings.Builder
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			full.Write(chunk)
			if err := handler.OnChunk(chunk); err != nil {
				return fmt.Errorf("chunk handler failed: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("stream reading error: %w", readErr)
		}
	}

	return handler.OnComplete(full.String())
}

// newStatusError reads a bounded amount of the body to build a readable
// message. JSON bodies with an "error" or "detail" string are unwrapped.
func newStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var errorResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &errorResp) == nil {
		if errorResp.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: errorResp.Error}
		}
		if errorResp.Detail != "" {
			return &StatusError{Code: resp.StatusCode, Message: errorResp.Detail}
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
