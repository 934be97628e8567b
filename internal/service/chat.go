package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/google/uuid"
)

var ErrInvalidChatMessage = errors.New("invalid chat message")

const (
	maxChatBodyLength = 2000
	maxRoomNameLength = 64
	historyLimit      = 100
)

// chatStore is the narrow persistence surface the chat service needs.
type chatStore interface {
	InsertChatMessage(ctx context.Context, msg *model.ChatMessage) error
	GetChatHistory(ctx context.Context, room string, limit int) ([]model.ChatMessage, error)
	GetChatRooms(ctx context.Context) ([]string, error)
}

type ChatService struct {
	repo chatStore
}

func NewChatService(repo chatStore) *ChatService {
	return &ChatService{repo: repo}
}

// Post validates, persists, and returns the stored message. The caller (the
// WS gateway) is responsible for broadcasting it.
func (s *ChatService) Post(ctx context.Context, user *model.AuthUser, room, body string) (*model.ChatMessage, error) {
	room = normalizeRoom(room)
	body = strings.TrimSpace(body)
	if room == "" || body == "" || len(body) > maxChatBodyLength {
		return nil, ErrInvalidChatMessage
	}

	msg := &model.ChatMessage{
		ID:          uuid.NewString(),
		Room:        room,
		AuthorID:    &user.ID,
		AuthorLogin: user.LoginID,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.InsertChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) History(ctx context.Context, room string) ([]model.ChatMessage, error) {
	room = normalizeRoom(room)
	if room == "" {
		return nil, ErrInvalidChatMessage
	}
	return s.repo.GetChatHistory(ctx, room, historyLimit)
}

func (s *ChatService) Rooms(ctx context.Context) ([]string, error) {
	return s.repo.GetChatRooms(ctx)
}

func normalizeRoom(room string) string {
	room = strings.TrimSpace(strings.ToLower(room))
	if len(room) > maxRoomNameLength {
		return ""
	}
	return room
}
