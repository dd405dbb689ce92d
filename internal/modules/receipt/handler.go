package receipt

import (
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

// RegisterRoutes mounts the unauthenticated receipt view.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bills/:id/receipt", h.GetReceipt)
}

func (h *Handler) GetReceipt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Validation(c, "Invalid bill id")
		return
	}

	r, err := h.service.Build(c.Request.Context(), id)
	if err != nil {
		if response.DomainError(c, err) {
			return
		}
		response.Internal(c, "Failed to build receipt")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"receipt": r})
}
