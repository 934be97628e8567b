package handler

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type memChatStore struct {
	messages []model.ChatMessage
}

func (s *memChatStore) InsertChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memChatStore) GetChatHistory(ctx context.Context, room string, limit int) ([]model.ChatMessage, error) {
	return nil, nil
}

func (s *memChatStore) GetChatRooms(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newChatTestServer(t *testing.T, capacity int64) (*httptest.Server, *service.AuthService, *memUserStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc, users := newTestAuthService(t)
	chatSvc := service.NewChatService(&memChatStore{})
	limiter := service.NewRateLimiter(service.NewMemoryRateLimitStore(time.Hour), capacity, time.Minute)
	gateway := NewChatGateway(authSvc, chatSvc, limiter, NewHub(), nil, time.Minute, time.Minute, slog.Default())

	router := gin.New()
	router.GET("/api/v1/chat/ws", gateway.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, authSvc, users
}

func dialChat(t *testing.T, srv *httptest.Server, header map[string][]string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func TestAnonymousWebSocket(t *testing.T) {
	srv, _, _ := newChatTestServer(t, 2)

	// No subprotocol, no token query: the connection is still accepted.
	conn := dialChat(t, srv, nil)
	if conn.Subprotocol() != "" {
		t.Fatalf("no subprotocol should be negotiated, got %q", conn.Subprotocol())
	}

	// Joining works without an identity.
	if err := conn.WriteJSON(model.WSInbound{Type: model.WSTypeJoin, Room: "general"}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Posting does not: the frame comes back as an error, not a broadcast.
	if err := conn.WriteJSON(model.WSInbound{Type: model.WSTypeMessage, Room: "general", Body: "hi"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var out model.WSOutbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out.Type != model.WSTypeError || out.Error != "unauthenticated" {
		t.Fatalf("expected unauthenticated error frame, got %+v", out)
	}

	// Both frames drained the shared anonymous bucket (capacity 2); the next
	// one is throttled.
	if err := conn.WriteJSON(model.WSInbound{Type: model.WSTypeJoin, Room: "general"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out.Type != model.WSTypeError || out.Error != "too many requests" {
		t.Fatalf("expected throttle error frame, got %+v", out)
	}
}

func TestWebSocketBearerSubprotocol(t *testing.T) {
	srv, authSvc, users := newChatTestServer(t, 10)
	seedLocalUser(t, users, "alice", "password123")

	issued, err := authSvc.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	conn := dialChat(t, srv, map[string][]string{
		"Sec-WebSocket-Protocol": {"bearer, " + issued.AccessToken},
	})
	if conn.Subprotocol() != wsBearerProtocol {
		t.Fatalf("server must negotiate the bearer subprotocol, got %q", conn.Subprotocol())
	}

	if err := conn.WriteJSON(model.WSInbound{Type: model.WSTypeJoin, Room: "general"}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := conn.WriteJSON(model.WSInbound{Type: model.WSTypeMessage, Room: "general", Body: "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var out model.WSOutbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out.Type != model.WSTypeMessage || out.Message == nil {
		t.Fatalf("expected broadcast frame, got %+v", out)
	}
	if out.Message.AuthorLogin != "alice" || out.Message.Body != "hello" {
		t.Fatalf("unexpected message: %+v", out.Message)
	}
}
