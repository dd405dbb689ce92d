package payment

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
	rg.POST("/bills/:id/payments", h.AddPayment)
	rg.POST("/bills/:id/partial-payments", h.AddPartialPayment)
	rg.GET("/bills/:id/payments", h.ListLedger)
	rg.GET("/bills/:id/paid-quantity", h.GetPaidQuantity)
}

func (h *Handler) AddPayment(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}
	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	p, err := h.service.AddPayment(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err, "Failed to add payment")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *Handler) AddPartialPayment(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}
	var req AddPartialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "Invalid request body")
		return
	}

	pp, err := h.service.AddPartialPayment(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err, "Failed to add partial payment")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"partial_payment": pp})
}

func (h *Handler) ListLedger(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}
	ledger, err := h.service.ListLedger(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, "Failed to load payments")
		return
	}
	response.Success(c, http.StatusOK, ledger)
}

func (h *Handler) GetPaidQuantity(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}
	orderNumber, err := strconv.ParseInt(c.Query("order_number"), 10, 64)
	if err != nil || orderNumber <= 0 {
		response.Validation(c, "Invalid order_number")
		return
	}
	itemName := c.Query("item_name")
	if itemName == "" {
		response.Validation(c, "item_name is required")
		return
	}

	res, err := h.service.GetPaidQuantityForItem(c.Request.Context(), id, orderNumber, itemName)
	if err != nil {
		h.renderError(c, err, "Failed to compute paid quantity")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidQuantity):
		response.Validation(c, err.Error())
	case errors.Is(err, ErrUnknownItem):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Item not found in order")
	case response.DomainError(c, err):
	default:
		response.Internal(c, fallback)
	}
}

func billID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Validation(c, "Invalid bill id")
		return 0, false
	}
	return id, true
}
