package model

import "time"

// ChatMessage is a persisted chat line. AuthorID is nil for system notices;
// user messages always carry the resolved identity.
type ChatMessage struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	AuthorID    *int64    `json:"authorId,omitempty"`
	AuthorLogin string    `json:"authorLogin"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WSInbound is the client-to-server frame on the chat socket.
type WSInbound struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Body string `json:"body"`
}

// WSOutbound is the server-to-client frame on the chat socket.
type WSOutbound struct {
	Type    string       `json:"type"`
	Room    string       `json:"room,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

const (
	WSTypeJoin    = "join"
	WSTypeLeave   = "leave"
	WSTypeMessage = "message"
	WSTypeError   = "error"
)
