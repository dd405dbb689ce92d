package domain

import "time"

type BillStatus string

const (
	BillDraft     BillStatus = "draft"
	BillPartial   BillStatus = "partial"
	BillPaid      BillStatus = "paid"
	BillCancelled BillStatus = "cancelled"
	BillOverdue   BillStatus = "overdue"
)

type Bill struct {
	ID     int64      `json:"id"`
	Status BillStatus `json:"status"`

	// Money fields are derived by a full recompute on every mutation,
	// never adjusted incrementally.
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Paid      float64 `json:"paid"`
	Remaining float64 `json:"remaining"`

	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Orders          []Order          `json:"orders,omitempty"`
	Sessions        []Session        `json:"sessions,omitempty"`
	Payments        []Payment        `json:"payments,omitempty"`
	PartialPayments []PartialPayment `json:"partial_payments,omitempty"`
}

// Closed reports whether the bill accepts no further mutation.
func (b *Bill) Closed() bool {
	return b.Status == BillPaid || b.Status == BillCancelled
}

// DeriveStatus computes the stored status from the recomputed money fields.
// Cancelled is terminal and never derived away; overdue is a read-time overlay
// (see EffectiveStatus) and never stored.
func (b *Bill) DeriveStatus() BillStatus {
	if b.Status == BillCancelled {
		return BillCancelled
	}
	switch {
	case b.Remaining <= 0 && b.Total > 0:
		return BillPaid
	case b.Paid > 0 && b.Paid < b.Total:
		return BillPartial
	default:
		return BillDraft
	}
}

// EffectiveStatus overlays overdue on a draft or partial bill past its due
// date. The stored status is left untouched.
func (b *Bill) EffectiveStatus(now time.Time) BillStatus {
	s := b.Status
	if (s == BillDraft || s == BillPartial) && b.DueDate != nil && now.After(*b.DueDate) {
		return BillOverdue
	}
	return s
}
