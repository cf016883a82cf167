// Package web serves the chat widget: session issuance, the reply socket and
// a health check.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/m3rciful/cemtembot/core/logger"
	"github.com/m3rciful/cemtembot/internal/domain"
)

// Conversation is the inbound side of the bot core.
type Conversation interface {
	OnText(ctx context.Context, addr domain.Address, text string) error
	OnButtonPress(ctx context.Context, addr domain.Address, token string) error
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the web edge.
type Options struct {
	Listen         string
	AllowedOrigins []string
	WriteTimeout   time.Duration
}

// Server is the HTTP edge of the web chat channel.
type Server struct {
	opts   Options
	hub    *Hub
	conv   Conversation
	health Pinger
	router *mux.Router
}

// NewServer wires the routes. conv may be attached later with Attach when the
// core is built after the hub.
func NewServer(opts Options, hub *Hub, health Pinger) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	s := &Server{opts: opts, hub: hub, health: health, router: mux.NewRouter()}
	s.router.HandleFunc("/api/chat/sessions", s.createSession).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.socket).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	return s
}

// Attach sets the conversation handler that receives socket frames.
func (s *Server) Attach(conv Conversation) {
	s.conv = conv
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, logger.CompWeb, "web.listen", slog.String("listen", s.opts.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web listen %s: %w", s.opts.Listen, err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger.Debug(r.Context(), logger.CompWeb, "session.issue", slog.String("session", id))
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) socket(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if _, err := uuid.Parse(session); err != nil {
		http.Error(w, "invalid session", http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.opts.AllowedOrigins})
	if err != nil {
		logger.Warn(r.Context(), logger.CompWeb, "ws.accept", slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	defer conn.CloseNow()

	addr := domain.Address{Channel: domain.ChannelWeb, ID: session}
	ctx := logger.WithChannel(r.Context(), string(domain.ChannelWeb), addr.Key())
	sink := &socketSink{conn: conn, timeout: s.opts.WriteTimeout}
	leave := s.hub.Join(session, sink)
	defer leave()
	logger.Info(ctx, logger.CompWeb, "ws.join", slog.String("status", "ok"))

	for {
		var frame ClientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.Debug(ctx, logger.CompWeb, "ws.read", slog.String("status", "fail"), slog.String("err", err.Error()))
			}
			logger.Info(ctx, logger.CompWeb, "ws.leave", slog.String("status", "ok"))
			return
		}
		s.dispatch(ctx, addr, frame, sink)
	}
}

func (s *Server) dispatch(ctx context.Context, addr domain.Address, frame ClientFrame, sink Sink) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, logger.CompWeb, "ws.panic", slog.String("err", fmt.Sprint(rec)))
		}
	}()
	if err := frame.validate(); err != nil {
		_ = sink.Send(ctx, ReplyFrame{Type: FrameError, Text: "Invalid message.", TS: time.Now().UnixMilli()})
		return
	}
	if s.conv == nil {
		return
	}
	var err error
	switch frame.Type {
	case FrameMessage:
		err = s.conv.OnText(ctx, addr, frame.Text)
	case FrameButton:
		err = s.conv.OnButtonPress(ctx, addr, frame.Token)
	}
	if err != nil {
		logger.Error(ctx, logger.CompWeb, "ws.dispatch",
			slog.String("status", "fail"),
			slog.String("op", frame.Type),
			slog.String("err", err.Error()),
		)
	}
}

type socketSink struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (s *socketSink) Send(ctx context.Context, frame ReplyFrame) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, frame)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
