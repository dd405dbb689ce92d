package billing

import "gamecafe/internal/domain"

type CreateOrderItem struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"required,gte=0"`
	Quantity int     `json:"quantity" binding:"required,gte=1"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" binding:"required,min=1"`
}

type AttachSessionRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}

type AttachOrderRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateItemPreparedRequest struct {
	ItemName      string `json:"item_name" binding:"required"`
	PreparedCount int    `json:"prepared_count" binding:"gte=0"`
}

type AdjustmentsRequest struct {
	Discount *float64 `json:"discount" binding:"omitempty,gte=0"`
	Tax      *float64 `json:"tax" binding:"omitempty,gte=0"`
}

// BillView is the consolidated read model: the recomputed bill with its
// attachments, the read-time overdue overlay and the live estimate for
// sessions that have not ended yet (never part of Total).
type BillView struct {
	Bill                *domain.Bill      `json:"bill"`
	EffectiveStatus     domain.BillStatus `json:"effective_status"`
	LiveSessionEstimate float64           `json:"live_session_estimate"`
}
