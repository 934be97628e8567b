package handler

import (
	"errors"
	"net/http"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	svc *service.BoardService
}

func NewBoardHandler(svc *service.BoardService) *BoardHandler {
	return &BoardHandler{svc: svc}
}

// ListBoards godoc
// @Summary List boards
// @Tags boards
// @Produce json
// @Success 200 {array} model.Board
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/boards [get]
func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.svc.ListBoards(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, boards)
}

// CreateBoard godoc
// @Summary Create a board
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.BoardCreateRequest true "Board"
// @Success 200 {object} model.Board
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/boards [post]
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req model.BoardCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	board, err := h.svc.CreateBoard(c.Request.Context(), GetAuthUser(c), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// ListPosts godoc
// @Summary List posts in a board
// @Tags boards
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {array} model.Post
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/boards/{id}/posts [get]
func (h *BoardHandler) ListPosts(c *gin.Context) {
	posts, err := h.svc.ListPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost godoc
// @Summary Create a post
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param request body model.PostCreateRequest true "Post"
// @Success 200 {object} model.Post
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/boards/{id}/posts [post]
func (h *BoardHandler) CreatePost(c *gin.Context) {
	var req model.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), GetAuthUser(c), c.Param("id"), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetPost godoc
// @Summary Get a post
// @Tags boards
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/posts/{id} [get]
func (h *BoardHandler) GetPost(c *gin.Context) {
	post, err := h.svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost godoc
// @Summary Update a post
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body model.PostUpdateRequest true "Post"
// @Success 200 {object} model.Post
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/posts/{id} [put]
func (h *BoardHandler) UpdatePost(c *gin.Context) {
	var req model.PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.svc.UpdatePost(c.Request.Context(), GetAuthUser(c), c.Param("id"), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete a post
// @Tags boards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} model.StatusResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/posts/{id} [delete]
func (h *BoardHandler) DeletePost(c *gin.Context) {
	if err := h.svc.DeletePost(c.Request.Context(), GetAuthUser(c), c.Param("id")); err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}

// ListComments godoc
// @Summary List comments on a post
// @Tags boards
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} model.Comment
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/posts/{id}/comments [get]
func (h *BoardHandler) ListComments(c *gin.Context) {
	comments, err := h.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment godoc
// @Summary Comment on a post
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body model.CommentCreateRequest true "Comment"
// @Success 200 {object} model.Comment
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/posts/{id}/comments [post]
func (h *BoardHandler) CreateComment(c *gin.Context) {
	var req model.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), GetAuthUser(c), c.Param("id"), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func writeBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidBoardRequest), errors.Is(err, service.ErrInvalidMindmap):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
