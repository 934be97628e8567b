package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Browsers cannot set an Authorization header on a WebSocket upgrade, so
// the client sends ["bearer", "<token>"] as the subprotocol list and the
// server negotiates "bearer" back.
const wsBearerProtocol = "bearer"

const wsSendBuffer = 16

// ExtractWSToken recovers a bearer token from an upgrade request: the
// second element of the Sec-WebSocket-Protocol list, falling back to the
// token query parameter. No match yields an empty token, not an error; the
// connection proceeds unauthenticated.
func ExtractWSToken(r *http.Request) string {
	header := r.Header.Get("Sec-WebSocket-Protocol")
	if header != "" {
		parts := strings.Split(header, ",")
		if len(parts) >= 2 && strings.TrimSpace(parts[0]) == wsBearerProtocol {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get("token")
}

type wsClient struct {
	conn  *websocket.Conn
	send  chan model.WSOutbound
	user  *model.AuthUser
	rooms map[string]struct{}
}

// ChatGateway upgrades chat sockets and bridges them onto the hub.
// Anonymous connections are accepted read-only: they can join rooms and
// receive broadcasts, share the anonymous rate bucket, and idle out sooner.
type ChatGateway struct {
	auth    *service.AuthService
	chat    *service.ChatService
	limiter *service.RateLimiter
	hub     *Hub

	idleTimeout     time.Duration
	anonIdleTimeout time.Duration
	log             *slog.Logger

	upgrader websocket.Upgrader
}

func NewChatGateway(
	auth *service.AuthService,
	chat *service.ChatService,
	limiter *service.RateLimiter,
	hub *Hub,
	allowedOrigins []string,
	idleTimeout, anonIdleTimeout time.Duration,
	log *slog.Logger,
) *ChatGateway {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return &ChatGateway{
		auth:            auth,
		chat:            chat,
		limiter:         limiter,
		hub:             hub,
		idleTimeout:     idleTimeout,
		anonIdleTimeout: anonIdleTimeout,
		log:             log,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{wsBearerProtocol},
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := originMap[origin]
				return ok
			},
		},
	}
}

// Handle godoc
// @Summary Chat WebSocket
// @Description Upgrade to the realtime chat socket. Token via subprotocol ["bearer", token] or ?token=.
// @Tags chat
// @Success 101
// @Router /api/v1/chat/ws [get]
func (g *ChatGateway) Handle(c *gin.Context) {
	var user *model.AuthUser
	if token := ExtractWSToken(c.Request); token != "" {
		// An invalid token degrades to anonymous instead of failing the
		// handshake; the client learns its state from the first post attempt.
		user, _ = g.auth.ParseAccessToken(token)
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Debug("chat.ws.upgrade_failed", "err", err)
		return
	}

	client := &wsClient{
		conn:  conn,
		send:  make(chan model.WSOutbound, wsSendBuffer),
		user:  user,
		rooms: make(map[string]struct{}),
	}

	g.log.Info("chat.ws.connected", "identity", IdentityKey(user))

	go g.writeLoop(client)
	g.readLoop(c, client)
}

func (g *ChatGateway) idleFor(user *model.AuthUser) time.Duration {
	if user == nil {
		return g.anonIdleTimeout
	}
	return g.idleTimeout
}

func (g *ChatGateway) readLoop(c *gin.Context, client *wsClient) {
	defer func() {
		g.hub.remove(client)
		close(client.send)
		_ = client.conn.Close()
	}()

	idle := g.idleFor(client.user)
	key := IdentityKey(client.user)

	_ = client.conn.SetReadDeadline(time.Now().Add(idle))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		var in model.WSInbound
		if err := client.conn.ReadJSON(&in); err != nil {
			g.log.Debug("chat.ws.closed", "identity", key, "err", err)
			return
		}
		_ = client.conn.SetReadDeadline(time.Now().Add(idle))

		if ok, _ := g.limiter.Allow(c.Request.Context(), key); !ok {
			client.trySend(model.WSOutbound{Type: model.WSTypeError, Error: "too many requests"})
			continue
		}

		switch in.Type {
		case model.WSTypeJoin:
			room := strings.TrimSpace(strings.ToLower(in.Room))
			if room == "" {
				client.trySend(model.WSOutbound{Type: model.WSTypeError, Error: "room required"})
				continue
			}
			client.rooms[room] = struct{}{}
			g.hub.join(client, room)

		case model.WSTypeLeave:
			room := strings.TrimSpace(strings.ToLower(in.Room))
			delete(client.rooms, room)
			g.hub.leave(client, room)

		case model.WSTypeMessage:
			if client.user == nil {
				client.trySend(model.WSOutbound{Type: model.WSTypeError, Error: "unauthenticated"})
				continue
			}
			msg, err := g.chat.Post(c.Request.Context(), client.user, in.Room, in.Body)
			if err != nil {
				client.trySend(model.WSOutbound{Type: model.WSTypeError, Error: "invalid message"})
				continue
			}
			g.hub.Broadcast(msg.Room, model.WSOutbound{Type: model.WSTypeMessage, Room: msg.Room, Message: msg})

		default:
			client.trySend(model.WSOutbound{Type: model.WSTypeError, Error: "unknown type"})
		}
	}
}

func (g *ChatGateway) writeLoop(client *wsClient) {
	ping := time.NewTicker(g.idleFor(client.user) / 2)
	defer ping.Stop()

	for {
		select {
		case out, ok := <-client.send:
			if !ok {
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(out); err != nil {
				return
			}
		case <-ping.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) trySend(out model.WSOutbound) {
	select {
	case c.send <- out:
	default:
	}
}
