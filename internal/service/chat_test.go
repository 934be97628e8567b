package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/corkboard/backend/internal/model"
)

type fakeChatStore struct {
	messages []model.ChatMessage
}

func (f *fakeChatStore) InsertChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatStore) GetChatHistory(ctx context.Context, room string, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, msg := range f.messages {
		if msg.Room == room {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChatStore) GetChatRooms(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var rooms []string
	for _, msg := range f.messages {
		if _, ok := seen[msg.Room]; !ok {
			seen[msg.Room] = struct{}{}
			rooms = append(rooms, msg.Room)
		}
	}
	return rooms, nil
}

func TestChatPost(t *testing.T) {
	store := &fakeChatStore{}
	svc := NewChatService(store)
	user := &model.AuthUser{ID: 1, LoginID: "alice"}

	msg, err := svc.Post(context.Background(), user, "  General  ", "hello")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if msg.Room != "general" {
		t.Fatalf("room must be normalized, got %q", msg.Room)
	}
	if msg.ID == "" || msg.AuthorID == nil || *msg.AuthorID != 1 {
		t.Fatalf("incomplete message: %+v", msg)
	}
	if len(store.messages) != 1 {
		t.Fatalf("message not persisted")
	}
}

func TestChatPostValidation(t *testing.T) {
	svc := NewChatService(&fakeChatStore{})
	user := &model.AuthUser{ID: 1, LoginID: "alice"}

	if _, err := svc.Post(context.Background(), user, "", "hello"); !errors.Is(err, ErrInvalidChatMessage) {
		t.Fatalf("empty room must be rejected, got %v", err)
	}
	if _, err := svc.Post(context.Background(), user, "general", "   "); !errors.Is(err, ErrInvalidChatMessage) {
		t.Fatalf("blank body must be rejected, got %v", err)
	}
	if _, err := svc.Post(context.Background(), user, "general", strings.Repeat("a", maxChatBodyLength+1)); !errors.Is(err, ErrInvalidChatMessage) {
		t.Fatalf("oversized body must be rejected, got %v", err)
	}
	if _, err := svc.Post(context.Background(), user, strings.Repeat("r", maxRoomNameLength+1), "hello"); !errors.Is(err, ErrInvalidChatMessage) {
		t.Fatalf("oversized room name must be rejected, got %v", err)
	}
}

func TestChatHistoryNormalizesRoom(t *testing.T) {
	store := &fakeChatStore{}
	svc := NewChatService(store)
	user := &model.AuthUser{ID: 1, LoginID: "alice"}

	if _, err := svc.Post(context.Background(), user, "general", "hello"); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	history, err := svc.History(context.Background(), "GENERAL")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}

	if _, err := svc.History(context.Background(), "  "); !errors.Is(err, ErrInvalidChatMessage) {
		t.Fatalf("blank room must be rejected, got %v", err)
	}
}
