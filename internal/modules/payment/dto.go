package payment

import "gamecafe/internal/domain"

type AddPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
	Actor  string  `json:"actor"`
}

type PartialPaymentLine struct {
	ItemName string `json:"item_name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gte=1"`
}

type AddPartialPaymentRequest struct {
	OrderNumber int64                `json:"order_number" binding:"required"`
	Items       []PartialPaymentLine `json:"items" binding:"required,min=1"`
	Method      string               `json:"method" binding:"required"`
}

type PaidQuantityResponse struct {
	OrderNumber int64  `json:"order_number"`
	ItemName    string `json:"item_name"`
	Ordered     int    `json:"ordered"`
	Paid        int    `json:"paid"`
	Remaining   int    `json:"remaining"`
}

type LedgerResponse struct {
	Payments        []domain.Payment        `json:"payments"`
	PartialPayments []domain.PartialPayment `json:"partial_payments"`
}
