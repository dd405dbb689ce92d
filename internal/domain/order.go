package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem snapshots the price at order time so later menu edits cannot
// change what a bill owes.
type OrderItem struct {
	Name          string  `json:"name" validate:"required"`
	Price         float64 `json:"price" validate:"required,gte=0"`
	Quantity      int     `json:"quantity" validate:"required,gte=1"`
	PreparedCount int     `json:"prepared_count"`
}

type Order struct {
	ID        int64       `json:"id"`
	BillID    int64       `json:"bill_id" validate:"required"`
	Number    int64       `json:"number"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Item returns the item with the given name, or nil.
func (o *Order) Item(name string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].Name == name {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemsTotal is the order's contribution to a bill subtotal. Cancelled orders
// contribute nothing.
func (o *Order) ItemsTotal() float64 {
	if o.Status == OrderCancelled {
		return 0
	}
	var sum float64
	for _, it := range o.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// NextStatuses lists the transitions allowed from the current order status.
func (s OrderStatus) NextStatuses() []OrderStatus {
	switch s {
	case OrderPending:
		return []OrderStatus{OrderPreparing, OrderCancelled}
	case OrderPreparing:
		return []OrderStatus{OrderReady, OrderCancelled}
	case OrderReady:
		return []OrderStatus{OrderDelivered}
	default:
		return nil
	}
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range s.NextStatuses() {
		if n == next {
			return true
		}
	}
	return false
}
