package receipt

// Receipt is the public, unauthenticated view of a bill. Every timestamp is a
// canonical RFC3339 UTC string; money fields are recomputed from whatever
// nested records loaded cleanly.
type Receipt struct {
	BillID   int64  `json:"bill_id"`
	Status   string `json:"status"`
	IssuedAt string `json:"issued_at"`
	DueDate  string `json:"due_date,omitempty"`

	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Paid      float64 `json:"paid"`
	Remaining float64 `json:"remaining"`

	// LiveSessionEstimate previews still-running sessions; it is not part of
	// Total.
	LiveSessionEstimate float64 `json:"live_session_estimate"`

	Sessions        []ReceiptSession        `json:"sessions"`
	Orders          []ReceiptOrder          `json:"orders"`
	Payments        []ReceiptPayment        `json:"payments"`
	PartialPayments []ReceiptPartialPayment `json:"partial_payments"`
}

type ReceiptSession struct {
	ID         int64    `json:"id"`
	DeviceType string   `json:"device_type"`
	Status     string   `json:"status"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time,omitempty"`
	FinalCost  *float64 `json:"final_cost,omitempty"`
}

type ReceiptOrder struct {
	Number int64         `json:"number"`
	Status string        `json:"status"`
	Items  []ReceiptItem `json:"items"`
}

type ReceiptItem struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	PaidQuantity int     `json:"paid_quantity"`
}

type ReceiptPayment struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	PaidAt string  `json:"paid_at"`
}

type ReceiptPartialPayment struct {
	OrderNumber int64         `json:"order_number"`
	Items       []ReceiptItem `json:"items"`
	Method      string        `json:"method"`
	PaidAt      string        `json:"paid_at"`
}
