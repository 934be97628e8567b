package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/corkboard/backend/internal/db"
	"github.com/corkboard/backend/internal/model"
	"github.com/google/uuid"
)

var ErrInvalidMindmap = errors.New("invalid mindmap")

// maxGraphBytes bounds a single mindmap document.
const maxGraphBytes = 1 << 20

type MindmapService struct {
	repo *db.Postgres
}

func NewMindmapService(repo *db.Postgres) *MindmapService {
	return &MindmapService{repo: repo}
}

func (s *MindmapService) Create(ctx context.Context, user *model.AuthUser, req model.MindmapSaveRequest) (*model.Mindmap, error) {
	title, graph, err := validateMindmap(req)
	if err != nil {
		return nil, err
	}

	m := &model.Mindmap{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Title:     title,
		Graph:     graph,
		CreatedAt: time.Now(),
	}
	m.UpdatedAt = m.CreatedAt
	if err := s.repo.CreateMindmap(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MindmapService) List(ctx context.Context, user *model.AuthUser) ([]model.MindmapListItem, error) {
	return s.repo.GetMindmapsByOwner(ctx, user.ID)
}

func (s *MindmapService) Get(ctx context.Context, user *model.AuthUser, mindmapID string) (*model.Mindmap, error) {
	m, err := s.repo.GetMindmap(ctx, mindmapID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.OwnerID != user.ID {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *MindmapService) Update(ctx context.Context, user *model.AuthUser, mindmapID string, req model.MindmapSaveRequest) (*model.Mindmap, error) {
	title, graph, err := validateMindmap(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, user, mindmapID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMindmap(ctx, mindmapID, title, graph); err != nil {
		return nil, err
	}
	return s.Get(ctx, user, mindmapID)
}

func (s *MindmapService) Delete(ctx context.Context, user *model.AuthUser, mindmapID string) error {
	if _, err := s.Get(ctx, user, mindmapID); err != nil {
		return err
	}
	return s.repo.DeleteMindmap(ctx, mindmapID)
}

func validateMindmap(req model.MindmapSaveRequest) (string, []byte, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > maxTitleLength {
		return "", nil, ErrInvalidMindmap
	}

	graph := []byte(req.Graph)
	if len(graph) == 0 {
		graph = []byte("{}")
	}
	if len(graph) > maxGraphBytes || !json.Valid(graph) {
		return "", nil, ErrInvalidMindmap
	}
	return title, graph, nil
}
