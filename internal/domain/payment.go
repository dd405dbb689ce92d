package domain

import "time"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Payment is a full (non-itemized) payment against a bill.
type Payment struct {
	ID     int64         `json:"id"`
	BillID int64         `json:"bill_id"`
	Amount float64       `json:"amount" validate:"required,gt=0"`
	Method PaymentMethod `json:"method"`
	Actor  string        `json:"actor,omitempty"`
	PaidAt time.Time     `json:"paid_at"`
}

// PartialPaymentItem is one settled item line: quantity units of the named
// item at the order's snapshot price.
type PartialPaymentItem struct {
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PartialPayment settles a subset of one order's item quantities,
// independent of full-bill payments.
type PartialPayment struct {
	ID          int64                `json:"id"`
	BillID      int64                `json:"bill_id"`
	OrderNumber int64                `json:"order_number"`
	Items       []PartialPaymentItem `json:"items"`
	Method      PaymentMethod        `json:"payment_method"`
	PaidAt      time.Time            `json:"paid_at"`
}

// Amount is the money this partial payment covers.
func (p *PartialPayment) Amount() float64 {
	var sum float64
	for _, it := range p.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
