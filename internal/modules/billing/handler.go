package billing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bills", h.CreateBill)
	rg.GET("/bills/:id", h.GetBill)
	rg.POST("/bills/:id/sessions", h.AttachSession)
	rg.POST("/bills/:id/orders", h.CreateOrder)
	rg.POST("/bills/:id/orders/attach", h.AttachOrder)
	rg.POST("/bills/:id/recompute", h.Recompute)
	rg.PATCH("/bills/:id/adjustments", h.SetAdjustments)
	rg.POST("/bills/:id/cancel", h.CancelBill)
	rg.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	rg.PATCH("/orders/:id/items/prepared", h.UpdateItemPrepared)
}

func (h *Handler) CreateBill(c *gin.Context) {
	bill, err := h.service.CreateBill(c.Request.Context())
	if err != nil {
		h.renderError(c, err, "Failed to create bill")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"bill": bill})
}

func (h *Handler) GetBill(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetBillView(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to load bill")
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) AttachSession(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AttachSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	bill, err := h.service.AttachSession(c.Request.Context(), id, req.SessionID)
	if err != nil {
		h.renderError(c, err, "Failed to attach session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bill": bill})
}

func (h *Handler) AttachOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AttachOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	bill, err := h.service.AttachOrder(c.Request.Context(), id, req.OrderID)
	if err != nil {
		h.renderError(c, err, "Failed to attach order")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bill": bill})
}

func (h *Handler) CreateOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err, "Failed to create order")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) Recompute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bill, err := h.service.RecomputeTotals(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to recompute bill")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bill": bill})
}

func (h *Handler) SetAdjustments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AdjustmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	bill, err := h.service.SetAdjustments(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err, "Failed to update adjustments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bill": bill})
}

func (h *Handler) CancelBill(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bill, err := h.service.CancelBill(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to cancel bill")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bill": bill})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		h.renderError(c, err, "Failed to update order status")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) UpdateItemPrepared(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateItemPreparedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	order, err := h.service.UpdateItemPrepared(c.Request.Context(), id, req.ItemName, req.PreparedCount)
	if err != nil {
		h.renderError(c, err, "Failed to update prepared count")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Validation(c, "Invalid request")
	case errors.Is(err, ErrStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATE", "Order status transition not allowed")
	case errors.Is(err, ErrPreparedOverCount):
		response.Validation(c, "Prepared count exceeds ordered quantity")
	case response.DomainError(c, err):
	default:
		response.Internal(c, fallback)
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Validation(c, "Invalid id")
		return 0, false
	}
	return id, true
}
