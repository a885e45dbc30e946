package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/logger"
	"github.com/killallgit/oracle/pkg/stream"
)

var (
	// ErrBusy is returned by Submit and Reset while a response is streaming.
	ErrBusy = errors.New("a response is already in progress")

	// ErrCancelled is recorded when the user aborts a submission.
	ErrCancelled = errors.New("request cancelled")
)

// StreamingClient sends one request and feeds the response to handler.
// endpoint.Client is the production implementation.
type StreamingClient interface {
	Stream(ctx context.Context, req chat.Request, handler stream.Handler) error
}

// Options configures a ConversationController.
type Options struct {
	Model            string
	DeveloperMessage string
	APIKey           string
	WelcomeMessage   string
}

// ConversationController owns the transcript and drives one streamed
// exchange with the endpoint at a time.
//
// Observers registered with Subscribe are called synchronously, in order,
// after every change. They may read the controller but must not call
// Submit, Reset or Subscribe from inside the callback.
type ConversationController struct {
	client StreamingClient
	opts   Options
	log    *logger.ComponentLogger

	mu         sync.Mutex
	transcript chat.Transcript
	state      State
	lastErr    error
	session    *StreamSession
	cancel     context.CancelFunc

	notifyMu  sync.Mutex
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func(Snapshot)
}

func NewConversationController(client StreamingClient, opts Options) *ConversationController {
	return &ConversationController{
		client:     client,
		opts:       opts,
		log:        logger.WithComponent("conversation"),
		transcript: chat.NewTranscriptWithWelcome(opts.WelcomeMessage),
		state:      StateIdle,
	}
}

// Submit sends text as the next user turn and blocks until the response has
// been fully streamed, has failed, or was cancelled. Blank input is ignored.
func (cc *ConversationController) Submit(ctx context.Context, text string) error {
	entry := chat.NewUserEntry(text)
	if entry.IsEmpty() {
		return nil
	}

	session := newStreamSession()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var history chat.RequestContext
	busy := false
	cc.update(func() bool {
		if cc.state != StateIdle {
			busy = true
			return false
		}
		cc.transcript = cc.transcript.Append(entry)
		cc.state = StateSending
		cc.lastErr = nil
		cc.session = session
		cc.cancel = cancel
		history = chat.BuildRequestContext(cc.transcript)
		return true
	})
	if busy {
		return ErrBusy
	}

	cc.log.Debug("Submitting message",
		"session_id", session.ID,
		"history_length", len(history),
		"model", cc.opts.Model)

	req, err := chat.NewRequest(cc.opts.DeveloperMessage, cc.opts.Model, cc.opts.APIKey, history)
	if err != nil {
		return cc.fail(session, fmt.Errorf("failed to build request: %w", err))
	}

	// the caller may have given up before the request went out
	if errors.Is(ctx.Err(), context.Canceled) {
		return cc.fail(session, ErrCancelled)
	}

	if err := cc.client.Stream(runCtx, req, &sessionHandler{cc: cc, session: session}); err != nil {
		if cc.wasCancelled(session) || errors.Is(ctx.Err(), context.Canceled) {
			err = ErrCancelled
		}
		return cc.fail(session, err)
	}

	cc.finish(session)
	return nil
}

// Cancel aborts the in-flight submission, if any. Partial content already in
// the transcript is kept. It reports whether there was anything to cancel.
func (cc *ConversationController) Cancel() bool {
	cc.mu.Lock()
	cancel := cc.cancel
	if cc.session != nil {
		cc.session.cancelled = true
	}
	cc.mu.Unlock()

	if cancel == nil {
		return false
	}
	cc.log.Info("Cancelling in-flight request")
	cancel()
	return true
}

// Reset restores the initial transcript. It fails with ErrBusy while a
// response is in flight.
func (cc *ConversationController) Reset() error {
	var err error
	cc.update(func() bool {
		if cc.state != StateIdle {
			err = ErrBusy
			return false
		}
		cc.transcript = chat.NewTranscriptWithWelcome(cc.opts.WelcomeMessage)
		cc.lastErr = nil
		return true
	})
	return err
}

// Subscribe registers fn to receive a Snapshot after every change and
// returns a function that removes it.
func (cc *ConversationController) Subscribe(fn func(Snapshot)) func() {
	cc.notifyMu.Lock()
	defer cc.notifyMu.Unlock()

	id := cc.nextID
	cc.nextID++
	cc.observers = append(cc.observers, observer{id: id, fn: fn})

	return func() {
		cc.notifyMu.Lock()
		defer cc.notifyMu.Unlock()
		for i, o := range cc.observers {
			if o.id == id {
				cc.observers = append(cc.observers[:i:i], cc.observers[i+1:]...)
				return
			}
		}
	}
}

func (cc *ConversationController) Snapshot() Snapshot {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.snapshotLocked()
}

func (cc *ConversationController) Transcript() chat.Transcript {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.transcript
}

func (cc *ConversationController) State() State {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.state
}

// Err returns the error recorded by the most recent submission, if any.
func (cc *ConversationController) Err() error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lastErr
}

func (cc *ConversationController) Model() string {
	return cc.opts.Model
}

func (cc *ConversationController) snapshotLocked() Snapshot {
	snap := Snapshot{
		Transcript: cc.transcript,
		State:      cc.state,
		Err:        cc.lastErr,
	}
	if cc.session != nil {
		snap.SessionID = cc.session.ID
	}
	return snap
}

// update applies fn under the state lock and, if fn reports a change,
// publishes the resulting snapshot. notifyMu keeps snapshots delivered in the
// order they were taken.
func (cc *ConversationController) update(fn func() bool) {
	cc.notifyMu.Lock()
	defer cc.notifyMu.Unlock()

	cc.mu.Lock()
	changed := fn()
	snap := cc.snapshotLocked()
	cc.mu.Unlock()

	if !changed {
		return
	}
	for _, o := range cc.observers {
		o.fn(snap)
	}
}

// applyText writes the session buffer into the transcript. The first call
// for a session appends the assistant entry, later calls replace it.
func (cc *ConversationController) applyText(session *StreamSession) {
	cc.update(func() bool {
		if cc.session != session {
			return false
		}
		cc.state = StateStreaming
		if session.InProgress {
			last, _ := cc.transcript.Last()
			cc.transcript = cc.transcript.ReplaceLast(last.WithContent(session.Content()))
			return true
		}
		cc.transcript = cc.transcript.Append(chat.NewAssistantEntry(session.Content()))
		session.InProgress = true
		return true
	})
}

func (cc *ConversationController) finish(session *StreamSession) {
	cc.update(func() bool {
		session.Completed = true
		session.InProgress = false
		cc.state = StateIdle
		cc.session = nil
		cc.cancel = nil
		return true
	})

	cc.log.Info("Response complete",
		"session_id", session.ID,
		"chunks", session.ChunkCount,
		"content_length", len(session.Content()),
		"duration", time.Since(session.StartTime).String())
}

// fail records err, passes through the Error state and settles in Idle.
// The transcript, including any partial assistant entry, is left as is.
func (cc *ConversationController) fail(session *StreamSession, err error) error {
	cc.log.Error("Request failed",
		"session_id", session.ID,
		"chunks", session.ChunkCount,
		"error", err.Error())

	cc.update(func() bool {
		cc.state = StateError
		cc.lastErr = err
		return true
	})
	cc.update(func() bool {
		session.InProgress = false
		cc.state = StateIdle
		cc.session = nil
		cc.cancel = nil
		return true
	})
	return err
}

func (cc *ConversationController) wasCancelled(session *StreamSession) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return session.cancelled
}

// sessionHandler routes endpoint callbacks into the controller for one
// session.
type sessionHandler struct {
	cc      *ConversationController
	session *StreamSession
}

func (h *sessionHandler) OnStart() {
	h.cc.update(func() bool {
		if h.cc.session != h.session || h.cc.state != StateSending {
			return false
		}
		h.cc.state = StateStreaming
		return true
	})
}

func (h *sessionHandler) OnChunk(chunk []byte) error {
	h.cc.mu.Lock()
	text := h.session.append(chunk)
	h.cc.mu.Unlock()

	if text == "" {
		return nil
	}
	h.cc.applyText(h.session)
	return nil
}

func (h *sessionHandler) OnComplete(string) error {
	h.cc.mu.Lock()
	rest := h.session.flush()
	h.cc.mu.Unlock()

	if rest != "" {
		h.cc.applyText(h.session)
	}
	return nil
}

// OnError is a no-op; Submit handles the error returned by Stream.
func (h *sessionHandler) OnError(error) {}

var _ stream.Handler = (*sessionHandler)(nil)
