package receipt

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/pricing"
)

type billReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Bill, error)
}

type orderReader interface {
	ListByBill(ctx context.Context, billID int64) ([]domain.Order, error)
}

type sessionReader interface {
	ListByBill(ctx context.Context, billID int64) ([]domain.Session, error)
}

type paymentReader interface {
	ListPayments(ctx context.Context, billID int64) ([]domain.Payment, error)
	ListPartialPayments(ctx context.Context, billID int64) ([]domain.PartialPayment, error)
}

type Service struct {
	bills    billReader
	orders   orderReader
	sessions sessionReader
	payments paymentReader
	rates    pricing.Config
	log      *zap.Logger
}

func NewService(bills billReader, orders orderReader, sessions sessionReader, payments paymentReader, rates pricing.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bills:    bills,
		orders:   orders,
		sessions: sessions,
		payments: payments,
		rates:    rates,
		log:      log,
	}
}

// Build renders the public receipt. The projection is deliberately tolerant:
// a nested reference that fails to load is dropped from the view and its
// totals instead of failing the whole request, so a half-written bill still
// renders. Repeated polling of this view is a pure read.
func (s *Service) Build(ctx context.Context, billID int64) (*Receipt, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	orders, err := s.orders.ListByBill(ctx, billID)
	if err != nil {
		s.log.Warn("receipt: orders unavailable, rendering without them",
			zap.Int64("bill_id", billID), zap.Error(err))
		orders = nil
	}
	sessions, err := s.sessions.ListByBill(ctx, billID)
	if err != nil {
		s.log.Warn("receipt: sessions unavailable, rendering without them",
			zap.Int64("bill_id", billID), zap.Error(err))
		sessions = nil
	}
	payments, err := s.payments.ListPayments(ctx, billID)
	if err != nil {
		s.log.Warn("receipt: payments unavailable, rendering without them",
			zap.Int64("bill_id", billID), zap.Error(err))
		payments = nil
	}
	partials, err := s.payments.ListPartialPayments(ctx, billID)
	if err != nil {
		s.log.Warn("receipt: partial payments unavailable, rendering without them",
			zap.Int64("bill_id", billID), zap.Error(err))
		partials = nil
	}

	r := &Receipt{
		BillID:   bill.ID,
		Status:   string(bill.EffectiveStatus(now)),
		IssuedAt: formatTime(bill.CreatedAt),
		Discount: bill.Discount,
		Tax:      bill.Tax,
	}
	if bill.DueDate != nil {
		r.DueDate = formatTime(*bill.DueDate)
	}

	paidByItem := paidQuantities(partials)

	var subtotal float64
	r.Orders = make([]ReceiptOrder, 0, len(orders))
	for _, o := range orders {
		if o.ID == 0 || len(o.Items) == 0 {
			// dangling or empty reference, absent from totals
			continue
		}
		ro := ReceiptOrder{Number: o.Number, Status: string(o.Status)}
		for _, it := range o.Items {
			ro.Items = append(ro.Items, ReceiptItem{
				Name:         it.Name,
				Price:        it.Price,
				Quantity:     it.Quantity,
				PaidQuantity: paidByItem[itemKey{o.Number, it.Name}],
			})
		}
		subtotal += o.ItemsTotal()
		r.Orders = append(r.Orders, ro)
	}

	r.Sessions = make([]ReceiptSession, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ID == 0 || sess.StartTime.IsZero() {
			continue
		}
		rs := ReceiptSession{
			ID:         sess.ID,
			DeviceType: string(sess.DeviceType),
			Status:     string(sess.Status),
			StartTime:  formatTime(sess.StartTime),
			FinalCost:  sess.FinalCost,
		}
		if sess.EndTime != nil {
			rs.EndTime = formatTime(*sess.EndTime)
		}
		switch {
		case sess.Status == domain.SessionCompleted && sess.FinalCost != nil:
			subtotal += *sess.FinalCost
		case sess.Status == domain.SessionActive:
			r.LiveSessionEstimate += s.rates.Cost(sess.Segments, sess.DeviceType, now)
		}
		r.Sessions = append(r.Sessions, rs)
	}

	var paid float64
	r.Payments = make([]ReceiptPayment, 0, len(payments))
	for _, p := range payments {
		paid += p.Amount
		r.Payments = append(r.Payments, ReceiptPayment{
			Amount: p.Amount,
			Method: string(p.Method),
			PaidAt: formatTime(p.PaidAt),
		})
	}
	r.PartialPayments = make([]ReceiptPartialPayment, 0, len(partials))
	for _, pp := range partials {
		paid += pp.Amount()
		rpp := ReceiptPartialPayment{
			OrderNumber: pp.OrderNumber,
			Method:      string(pp.Method),
			PaidAt:      formatTime(pp.PaidAt),
		}
		for _, it := range pp.Items {
			rpp.Items = append(rpp.Items, ReceiptItem{Name: it.ItemName, Price: it.Price, Quantity: it.Quantity})
		}
		r.PartialPayments = append(r.PartialPayments, rpp)
	}

	r.Subtotal = round2(subtotal)
	r.Total = round2(subtotal + bill.Tax - bill.Discount)
	r.Paid = round2(paid)
	r.Remaining = round2(r.Total - r.Paid)
	r.LiveSessionEstimate = round2(r.LiveSessionEstimate)
	return r, nil
}

type itemKey struct {
	orderNumber int64
	itemName    string
}

func paidQuantities(partials []domain.PartialPayment) map[itemKey]int {
	out := make(map[itemKey]int)
	for _, pp := range partials {
		for _, it := range pp.Items {
			out[itemKey{pp.OrderNumber, it.ItemName}] += it.Quantity
		}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
