package session

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gamecafe/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.Start)
	rg.GET("/sessions/:id", h.Get)
	rg.GET("/sessions/:id/live-cost", h.LiveCost)
	rg.PATCH("/sessions/:id/controllers", h.UpdateControllers)
	rg.POST("/sessions/:id/end", h.End)
	rg.POST("/sessions/:id/cancel", h.Cancel)
}

func (h *Handler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	sess, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err, "Failed to start session")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	sess, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to load session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) LiveCost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	cost, err := h.service.LiveCost(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to compute live cost")
		return
	}
	response.Success(c, http.StatusOK, cost)
}

func (h *Handler) UpdateControllers(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdateControllersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	sess, err := h.service.UpdateControllers(c.Request.Context(), id, req.Controllers)
	if err != nil {
		h.renderError(c, err, "Failed to update controllers")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) End(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	sess, err := h.service.End(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to end session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	sess, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to cancel session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Validation(c, "Invalid session parameters")
	case errors.Is(err, ErrDeviceMaintenance):
		response.Error(c, http.StatusConflict, "DEVICE_MAINTENANCE", "Device is under maintenance")
	case response.DomainError(c, err):
	default:
		response.Internal(c, fallback)
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Validation(c, "Invalid id")
		return 0, false
	}
	return id, true
}
