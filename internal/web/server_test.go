package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/m3rciful/cemtembot/internal/domain"
)

type echoConversation struct {
	hub *Hub
}

func (e *echoConversation) OnText(ctx context.Context, addr domain.Address, text string) error {
	_, err := e.hub.Broadcast(ctx, addr.ID, ReplyFrame{Type: FrameReply, Text: "echo:" + text})
	return err
}

func (e *echoConversation) OnButtonPress(ctx context.Context, addr domain.Address, token string) error {
	_, err := e.hub.Broadcast(ctx, addr.ID, ReplyFrame{Type: FrameReply, Text: "button:" + token})
	return err
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCreateSession(t *testing.T) {
	s := NewServer(Options{}, NewHub(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := uuid.Parse(body.SessionID); err != nil {
		t.Fatalf("session id is not a uuid: %q", body.SessionID)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(Options{}, NewHub(), pinger{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NewServer(Options{}, NewHub(), pinger{err: errors.New("db down")}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSocketRejectsBadSession(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(Options{}, NewHub(), nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?session=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSocketRoundTrip(t *testing.T) {
	hub := NewHub()
	s := NewServer(Options{}, hub, nil)
	s.Attach(&echoConversation{hub: hub})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session := uuid.NewString()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + session
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, ClientFrame{Type: FrameMessage, Text: "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply ReplyFrame
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != FrameReply || reply.Text != "echo:hi" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	if err := wsjson.Write(ctx, conn, ClientFrame{Type: FrameButton}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != FrameError {
		t.Fatalf("invalid frame should yield an error frame, got %+v", reply)
	}
}
