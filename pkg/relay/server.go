package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/config"
	"github.com/killallgit/oracle/pkg/logger"
	"github.com/killallgit/oracle/pkg/stream"
	"golang.org/x/sync/errgroup"
)

const (
	maxRequestBodySize = 1 << 20
	shutdownTimeout    = 10 * time.Second
)

// Server serves the chat endpoint: it accepts the request the client posts
// and streams the generator's reply back as plain text.
type Server struct {
	addr      string
	generator Generator
	apiKey    string
	log       *logger.ComponentLogger
	mux       *http.ServeMux
}

// NewServer creates a relay. apiKey is used when a request carries none.
func NewServer(addr string, generator Generator, apiKey string) *Server {
	s := &Server{
		addr:      addr,
		generator: generator,
		apiKey:    apiKey,
		log:       logger.WithComponent("relay"),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// NewServerFromConfig builds the generator and server from relay settings.
func NewServerFromConfig(cfg config.RelayConfig) (*Server, error) {
	generator, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return NewServer(cfg.Addr, generator, cfg.APIKey), nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, letting in-flight streams finish within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.log.Info("Relay listening", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Relay shutdown failed", "error", err.Error())
			return err
		}
		s.log.Info("Relay stopped")
		return nil
	})

	return eg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	history, err := chat.DecodeRequestContext(req.UserMessage)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid user_message: %v", err))
		return
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = config.DefaultModel
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.apiKey
	}

	messages := make([]chat.Entry, 0, len(history)+1)
	if req.DeveloperMessage != "" {
		messages = append(messages, chat.NewSystemEntry(req.DeveloperMessage))
	}
	messages = append(messages, history.Entries()...)

	s.log.Debug("Relaying chat request",
		"model", model,
		"history_length", len(history),
		"remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	out := stream.NewWriterHandler(w)
	chunks := 0
	handler := stream.NewMultiHandler(out, stream.HandlerFunc{
		ChunkFunc: func([]byte) error {
			chunks++
			return nil
		},
	})
	if err := s.generator.Generate(r.Context(), model, apiKey, messages, handler); err != nil {
		s.log.Error("Generation failed",
			"model", model,
			"started", out.Started(),
			"chunks", chunks,
			"error", err.Error())
		if !out.Started() {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		// the status line is gone; cut the connection so the client sees a
		// truncated stream instead of a clean end
		panic(http.ErrAbortHandler)
	}

	s.log.Debug("Chat response complete", "model", model, "chunks", chunks, "length", len(out.GetContent()))
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Cache-Control")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
