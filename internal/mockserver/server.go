// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver is a local stand-in for the Orion chat service. It
// answers POST /chat with a scripted event stream written in randomly sized
// pieces, so clients see the same chunk boundaries (including split
// characters) they would see from the real service.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/stream"
)

const (
	// DefaultAddr is where `orion mock` listens.
	DefaultAddr = "127.0.0.1:8089"

	// DefaultMaxSplit is the largest single write, in bytes.
	DefaultMaxSplit = 7

	maxRequestBody = 64 * 1024
)

// ReplyFunc produces the payload lines for a message. Each line is sent as
// "data: <line>".
type ReplyFunc func(message string) []string

// DefaultReply echoes the message in the markdown-ish shape the real service
// uses: a numbered heading and a bold bullet.
func DefaultReply(message string) []string {
	message = strings.Join(strings.Fields(message), " ")
	return []string{
		"1. Echo: " + message,
		"",
		"- **Tip :** served by the orion mock server.",
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the mock chat service.
type Server struct {
	reply    ReplyFunc
	maxSplit int
	delay    time.Duration
	logger   *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Server.
type Option func(*Server)

// WithReply replaces DefaultReply.
func WithReply(fn ReplyFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.reply = fn
		}
	}
}

// WithSeed makes the write splitting reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Server) {
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithMaxSplit sets the largest single write. 1 writes byte by byte.
func WithMaxSplit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSplit = n
		}
	}
}

// WithDelay pauses between writes.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a mock server.
func New(opts ...Option) *Server {
	s := &Server{
		reply:    DefaultReply,
		maxSplit: DefaultMaxSplit,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithComponent("mock")
	}
	return s
}

// Handler returns the HTTP routes.
//
//	POST /chat      {"message": "..."} -> event stream
//	GET  /healthz   {"status": "ok"}
//
// /chat accepts test knobs as query parameters: status=NNN answers with that
// status, fail=1 cuts the connection halfway through the body, delay=MS
// overrides the pause between writes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Recoverer re-panics http.ErrAbortHandler, which fail=1 relies on.
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/chat", s.handleChat)

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if code, err := strconv.Atoi(q.Get("status")); err == nil && code >= 400 {
		http.Error(w, http.StatusText(code), code)
		return
	}
	delay := s.delay
	if ms, err := strconv.Atoi(q.Get("delay")); err == nil && ms >= 0 {
		delay = time.Duration(ms) * time.Millisecond
	}

	body := EventStream(s.reply(req.Message))
	pieces := s.split(body)
	if q.Get("fail") == "1" {
		pieces = pieces[:len(pieces)/2]
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for _, piece := range pieces {
		if _, err := io.WriteString(w, piece); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
		if delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
		}
	}

	if q.Get("fail") == "1" {
		// Abort without a clean end of body.
		panic(http.ErrAbortHandler)
	}
}

// EventStream frames payload lines as "data: <line>\n" followed by the
// "data: [DONE]" sentinel.
func EventStream(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(stream.DataPrefix)
		b.WriteByte(' ')
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(stream.DoneSentinel)
	b.WriteByte('\n')
	return b.String()
}

// split cuts body into pieces of 1..maxSplit bytes. Pieces may end inside a
// multi-byte character.
func (s *Server) split(body string) []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	var pieces []string
	for len(body) > 0 {
		n := 1 + s.rng.IntN(s.maxSplit)
		if n > len(body) {
			n = len(body)
		}
		pieces = append(pieces, body[:n])
		body = body[n:]
	}
	return pieces
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
