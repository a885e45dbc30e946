package controllers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/stream"
)

// State is the lifecycle position of a ConversationController.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamSession tracks a single in-flight response.
//
// InProgress is set once the session has placed its assistant entry in the
// transcript; from then on every chunk replaces that entry instead of adding
// a new one.
type StreamSession struct {
	ID         string
	StartTime  time.Time
	InProgress bool
	Completed  bool
	ChunkCount int

	buffer    strings.Builder
	decoder   *stream.Decoder
	cancelled bool
}

func newStreamSession() *StreamSession {
	return &StreamSession{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		decoder:   stream.NewDecoder(),
	}
}

// append decodes chunk into the buffer and returns the newly completed text.
func (s *StreamSession) append(chunk []byte) string {
	s.ChunkCount++
	text := s.decoder.Decode(chunk)
	s.buffer.WriteString(text)
	return text
}

// flush moves any bytes the decoder held back into the buffer.
func (s *StreamSession) flush() string {
	rest := s.decoder.Flush()
	s.buffer.WriteString(rest)
	return rest
}

// Content returns everything received so far.
func (s *StreamSession) Content() string {
	return s.buffer.String()
}

// Snapshot is a consistent, immutable view of the controller handed to
// observers.
type Snapshot struct {
	Transcript chat.Transcript
	State      State
	Err        error
	SessionID  string
}

// ErrorMessage returns the human-readable text of the recorded error, or "".
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Busy reports whether a submission is in flight.
func (s Snapshot) Busy() bool {
	return s.State == StateSending || s.State == StateStreaming
}
