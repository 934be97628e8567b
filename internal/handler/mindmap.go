package handler

import (
	"net/http"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type MindmapHandler struct {
	svc *service.MindmapService
}

func NewMindmapHandler(svc *service.MindmapService) *MindmapHandler {
	return &MindmapHandler{svc: svc}
}

// List godoc
// @Summary List own mindmaps
// @Tags mindmaps
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.MindmapListItem
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/mindmaps [get]
func (h *MindmapHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), GetAuthUser(c))
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create godoc
// @Summary Create a mindmap
// @Tags mindmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.MindmapSaveRequest true "Mindmap"
// @Success 200 {object} model.Mindmap
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/mindmaps [post]
func (h *MindmapHandler) Create(c *gin.Context) {
	var req model.MindmapSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m, err := h.svc.Create(c.Request.Context(), GetAuthUser(c), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Get godoc
// @Summary Get a mindmap
// @Tags mindmaps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mindmap ID"
// @Success 200 {object} model.Mindmap
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/mindmaps/{id} [get]
func (h *MindmapHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), GetAuthUser(c), c.Param("id"))
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update godoc
// @Summary Update a mindmap
// @Tags mindmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mindmap ID"
// @Param request body model.MindmapSaveRequest true "Mindmap"
// @Success 200 {object} model.Mindmap
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/mindmaps/{id} [put]
func (h *MindmapHandler) Update(c *gin.Context) {
	var req model.MindmapSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m, err := h.svc.Update(c.Request.Context(), GetAuthUser(c), c.Param("id"), req)
	if err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Delete godoc
// @Summary Delete a mindmap
// @Tags mindmaps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mindmap ID"
// @Success 200 {object} model.StatusResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/mindmaps/{id} [delete]
func (h *MindmapHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetAuthUser(c), c.Param("id")); err != nil {
		writeBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}
