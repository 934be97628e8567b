package handler

import (
	"errors"
	"net/http"

	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Rooms godoc
// @Summary List chat rooms
// @Tags chat
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/chat/rooms [get]
func (h *ChatHandler) Rooms(c *gin.Context) {
	rooms, err := h.svc.Rooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// History godoc
// @Summary Get room history
// @Tags chat
// @Produce json
// @Param room path string true "Room name"
// @Success 200 {array} model.ChatMessage
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/chat/rooms/{room}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.svc.History(c.Request.Context(), c.Param("room"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidChatMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, messages)
}
