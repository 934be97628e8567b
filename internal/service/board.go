package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/corkboard/backend/internal/db"
	"github.com/corkboard/backend/internal/model"
	"github.com/google/uuid"
)

var (
	ErrInvalidBoardRequest = errors.New("invalid board request")
	ErrNotFound            = errors.New("not found")
)

const (
	maxTitleLength = 200
	maxBodyLength  = 20000
)

type BoardService struct {
	repo *db.Postgres
}

func NewBoardService(repo *db.Postgres) *BoardService {
	return &BoardService{repo: repo}
}

func (s *BoardService) CreateBoard(ctx context.Context, user *model.AuthUser, req model.BoardCreateRequest) (*model.Board, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return nil, ErrInvalidBoardRequest
	}

	board := &model.Board{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return board, nil
}

func (s *BoardService) ListBoards(ctx context.Context) ([]model.Board, error) {
	return s.repo.GetBoards(ctx)
}

func (s *BoardService) ListPosts(ctx context.Context, boardID string) ([]model.Post, error) {
	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.GetPostsByBoard(ctx, boardID)
}

func (s *BoardService) CreatePost(ctx context.Context, user *model.AuthUser, boardID string, req model.PostCreateRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || len(title) > maxTitleLength || len(body) > maxBodyLength {
		return nil, ErrInvalidBoardRequest
	}

	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	post := &model.Post{
		ID:          uuid.NewString(),
		BoardID:     boardID,
		AuthorID:    user.ID,
		AuthorLogin: user.LoginID,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	post.UpdatedAt = post.CreatedAt
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BoardService) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

// UpdatePost lets only the author edit; there is no moderator role yet.
func (s *BoardService) UpdatePost(ctx context.Context, user *model.AuthUser, postID string, req model.PostUpdateRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || len(title) > maxTitleLength || len(body) > maxBodyLength {
		return nil, ErrInvalidBoardRequest
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != user.ID {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdatePost(ctx, postID, title, body); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, postID)
}

func (s *BoardService) DeletePost(ctx context.Context, user *model.AuthUser, postID string) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != user.ID {
		return ErrForbidden
	}
	return s.repo.DeletePost(ctx, postID)
}

func (s *BoardService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.GetCommentsByPost(ctx, postID)
}

func (s *BoardService) CreateComment(ctx context.Context, user *model.AuthUser, postID string, req model.CommentCreateRequest) (*model.Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" || len(body) > maxBodyLength {
		return nil, ErrInvalidBoardRequest
	}

	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:          uuid.NewString(),
		PostID:      postID,
		AuthorID:    user.ID,
		AuthorLogin: user.LoginID,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
