package billing

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/keylock"
	"gamecafe/internal/pkg/pricing"
)

type Service struct {
	bills    BillRepository
	orders   OrderRepository
	sessions SessionStore
	payments PaymentReader
	rates    pricing.Config
	dueAfter time.Duration
	locks    *keylock.KeyLock
	log      *zap.Logger
}

// NewService builds the bill aggregator. locks serializes mutations per bill
// id and is shared with the payment ledger so payments and attaches on one
// bill never interleave.
func NewService(
	bills BillRepository,
	orders OrderRepository,
	sessions SessionStore,
	payments PaymentReader,
	rates pricing.Config,
	dueAfter time.Duration,
	locks *keylock.KeyLock,
	log *zap.Logger,
) *Service {
	if locks == nil {
		locks = keylock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bills:    bills,
		orders:   orders,
		sessions: sessions,
		payments: payments,
		rates:    rates,
		dueAfter: dueAfter,
		locks:    locks,
		log:      log,
	}
}

// Locks exposes the per-bill lock keyspace for the payment ledger.
func (s *Service) Locks() *keylock.KeyLock { return s.locks }

func (s *Service) CreateBill(ctx context.Context) (*domain.Bill, error) {
	b := &domain.Bill{Status: domain.BillDraft}
	if s.dueAfter > 0 {
		due := time.Now().UTC().Add(s.dueAfter)
		b.DueDate = &due
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("bill created", zap.Int64("bill_id", b.ID))
	return b, nil
}

func (s *Service) GetBill(ctx context.Context, id int64) (*domain.Bill, error) {
	return s.bills.GetByID(ctx, id)
}

// GetBillView loads the consolidated bill: attachments, freshly recomputed
// totals, overdue overlay and the live estimate for running sessions.
func (s *Service) GetBillView(ctx context.Context, id int64) (*BillView, error) {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.fill(ctx, bill); err != nil {
		return nil, err
	}
	s.compute(bill)

	var live float64
	for _, sess := range bill.Sessions {
		if sess.Status == domain.SessionActive {
			live += s.rates.Cost(sess.Segments, sess.DeviceType, now)
		}
	}

	return &BillView{
		Bill:                bill,
		EffectiveStatus:     bill.EffectiveStatus(now),
		LiveSessionEstimate: live,
	}, nil
}

// AttachSession links a session to the bill. Idempotent by session id:
// re-attaching the same session is a no-op, so a stale retry can never double
// count its cost.
func (s *Service) AttachSession(ctx context.Context, billID, sessionID int64) (*domain.Bill, error) {
	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Closed() {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "attach session to"}
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.BillID {
	case billID:
		// already attached, nothing to do
	case 0:
		sess.BillID = billID
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ConflictError{Resource: "session", ID: sessionID, Reason: "already attached to another bill"}
	}

	return s.recompute(ctx, bill)
}

// AttachOrder links an existing order to the bill. Idempotent by order id
// like AttachSession: a stale retry of the same attach is a no-op, so the
// order's items can never be counted twice.
func (s *Service) AttachOrder(ctx context.Context, billID, orderID int64) (*domain.Bill, error) {
	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Closed() {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "attach order to"}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.BillID {
	case billID:
		// already attached, nothing to do
	case 0:
		number, err := s.orders.NextNumber(ctx, billID)
		if err != nil {
			return nil, err
		}
		if err := s.orders.AttachToBill(ctx, orderID, billID, number); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ConflictError{Resource: "order", ID: orderID, Reason: "already attached to another bill"}
	}

	return s.recompute(ctx, bill)
}

// CreateOrder creates an order on the bill and recomputes totals. Item prices
// and quantities arrive pre-validated against the menu by the order intake
// upstream; this only enforces the shape invariants.
func (s *Service) CreateOrder(ctx context.Context, billID int64, req CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrValidation
	}
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Name == "" || it.Quantity < 1 || it.Price < 0 {
			return nil, ErrValidation
		}
		items = append(items, domain.OrderItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Closed() {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "add order to"}
	}

	number, err := s.orders.NextNumber(ctx, billID)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		BillID: billID,
		Number: number,
		Status: domain.OrderPending,
		Items:  items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if _, err := s.recompute(ctx, bill); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.Int64("bill_id", billID),
		zap.Int64("order_number", number),
		zap.Int("items", len(items)))
	return order, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(order.BillID)
	defer s.locks.Unlock(order.BillID)

	if !order.Status.CanTransitionTo(next) {
		return nil, ErrStatusTransition
	}
	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next

	// cancelling an order changes what the bill owes
	if next == domain.OrderCancelled {
		bill, err := s.bills.GetByID(ctx, order.BillID)
		if err != nil {
			return nil, err
		}
		if _, err := s.recompute(ctx, bill); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// UpdateItemPrepared records kitchen progress on one item line.
func (s *Service) UpdateItemPrepared(ctx context.Context, orderID int64, itemName string, prepared int) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	item := order.Item(itemName)
	if item == nil {
		return nil, &domain.NotFoundError{Resource: "order item", ID: orderID}
	}
	if prepared < 0 || prepared > item.Quantity {
		return nil, ErrPreparedOverCount
	}
	item.PreparedCount = prepared

	if err := s.orders.UpdateItems(ctx, orderID, order.Items); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) SetAdjustments(ctx context.Context, billID int64, req AdjustmentsRequest) (*domain.Bill, error) {
	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Closed() {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "adjust"}
	}
	if req.Discount != nil {
		if *req.Discount < 0 {
			return nil, ErrValidation
		}
		bill.Discount = *req.Discount
	}
	if req.Tax != nil {
		if *req.Tax < 0 {
			return nil, ErrValidation
		}
		bill.Tax = *req.Tax
	}
	return s.recompute(ctx, bill)
}

// RecomputeTotals rebuilds every derived money field from the underlying
// records. Nothing is ever adjusted incrementally, so rounding error cannot
// compound across mutations.
func (s *Service) RecomputeTotals(ctx context.Context, billID int64) (*domain.Bill, error) {
	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, bill)
}

// CancelBill is allowed only while the bill is draft or partial. Existing
// payments stay on record; refunds are a separate concern outside this core.
func (s *Service) CancelBill(ctx context.Context, billID int64) (*domain.Bill, error) {
	s.locks.Lock(billID)
	defer s.locks.Unlock(billID)

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status != domain.BillDraft && bill.Status != domain.BillPartial {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "cancel"}
	}

	bill.Status = domain.BillCancelled
	if err := s.bills.Save(ctx, bill); err != nil {
		return nil, err
	}
	s.log.Info("bill cancelled", zap.Int64("bill_id", billID))
	return bill, nil
}

// recompute must run with the bill lock held.
func (s *Service) recompute(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	if err := s.fill(ctx, bill); err != nil {
		return nil, err
	}
	s.compute(bill)
	if err := s.bills.Save(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) fill(ctx context.Context, bill *domain.Bill) error {
	var err error
	if bill.Orders, err = s.orders.ListByBill(ctx, bill.ID); err != nil {
		return err
	}
	if bill.Sessions, err = s.sessions.ListByBill(ctx, bill.ID); err != nil {
		return err
	}
	if bill.Payments, err = s.payments.ListPayments(ctx, bill.ID); err != nil {
		return err
	}
	if bill.PartialPayments, err = s.payments.ListPartialPayments(ctx, bill.ID); err != nil {
		return err
	}
	return nil
}

// compute derives subtotal, total, paid and remaining from loaded
// attachments. Active sessions contribute nothing: only a final cost ever
// lands in a total.
func (s *Service) compute(bill *domain.Bill) {
	var subtotal float64
	for _, o := range bill.Orders {
		subtotal += o.ItemsTotal()
	}
	for _, sess := range bill.Sessions {
		if sess.Status == domain.SessionCompleted && sess.FinalCost != nil {
			subtotal += *sess.FinalCost
		}
	}

	var paid float64
	for _, p := range bill.Payments {
		paid += p.Amount
	}
	for _, pp := range bill.PartialPayments {
		paid += pp.Amount()
	}

	bill.Subtotal = round2(subtotal)
	bill.Total = round2(subtotal + bill.Tax - bill.Discount)
	bill.Paid = round2(paid)
	bill.Remaining = round2(bill.Total - bill.Paid)
	bill.Status = bill.DeriveStatus()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
