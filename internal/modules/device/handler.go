package device

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/response"
)

type RegisterDeviceRequest struct {
	Type   string `json:"type" binding:"required"`
	Number int    `json:"number" binding:"required,gte=1"`
}

type SetStatusRequest struct {
	Maintenance bool `json:"maintenance"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/devices", h.Register)
	rg.GET("/devices", h.List)
	rg.PATCH("/devices/:id/status", h.SetStatus)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	d, err := h.service.Register(c.Request.Context(), domain.DeviceType(req.Type), req.Number)
	if err != nil {
		h.renderError(c, err, "Failed to register device")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"device": d})
}

func (h *Handler) List(c *gin.Context) {
	devices, err := h.service.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err, "Failed to list devices")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"devices": devices})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Validation(c, "Invalid device id")
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	d, err := h.service.SetMaintenance(c.Request.Context(), id, req.Maintenance)
	if err != nil {
		h.renderError(c, err, "Failed to update device status")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"device": d})
}

func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Validation(c, "Invalid device parameters")
	case response.DomainError(c, err):
	default:
		response.Internal(c, fallback)
	}
}
