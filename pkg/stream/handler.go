package stream

import "context"

// Handler receives a streamed response one chunk at a time.
//
// OnStart fires once, when the response has begun arriving. OnChunk fires for
// every fragment in the order received. Exactly one of OnComplete or OnError
// ends the stream.
type Handler interface {
	OnStart()
	OnChunk(chunk []byte) error
	OnComplete(finalContent string) error
	OnError(err error)
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc struct {
	StartFunc    func()
	ChunkFunc    func(chunk []byte) error
	CompleteFunc func(finalContent string) error
	ErrorFunc    func(err error)
}

// OnStart implements Handler
func (h HandlerFunc) OnStart() {
	if h.StartFunc != nil {
		h.StartFunc()
	}
}

// OnChunk implements Handler
func (h HandlerFunc) OnChunk(chunk []byte) error {
	if h.ChunkFunc != nil {
		return h.ChunkFunc(chunk)
	}
	return nil
}

// OnComplete implements Handler
func (h HandlerFunc) OnComplete(finalContent string) error {
	if h.CompleteFunc != nil {
		return h.CompleteFunc(finalContent)
	}
	return nil
}

// OnError implements Handler
func (h HandlerFunc) OnError(err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(err)
	}
}

// ToStreamingFunc converts a Handler to langchaingo's streaming function
// signature so it can be passed to llms.WithStreamingFunc.
func ToStreamingFunc(handler Handler) func(context.Context, []byte) error {
	return func(ctx context.Context, chunk []byte) error {
		select {
		case <-ctx.Done():
			handler.OnError(ctx.Err())
			return ctx.Err()
		default:
			return handler.OnChunk(chunk)
		}
	}
}

var _ Handler = HandlerFunc{}
