package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/keylock"
	"gamecafe/internal/pkg/metrics"
)

type Service struct {
	payments paymentRepo
	orders   orderReader
	bills    billService
	locks    *keylock.KeyLock
	log      *zap.Logger
}

// NewService builds the payment ledger. locks must be the bill keyspace
// shared with the bill aggregator so payment validation and bill mutation on
// one bill are serialized.
func NewService(payments paymentRepo, orders orderReader, bills billService, locks *keylock.KeyLock, log *zap.Logger) *Service {
	if locks == nil {
		locks = keylock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		payments: payments,
		orders:   orders,
		bills:    bills,
		locks:    locks,
		log:      log,
	}
}

// AddPayment appends a full payment. The amount is not clamped against the
// remaining balance: admins correct mistakes by over- or re-paying, and the
// recompute absorbs it.
func (s *Service) AddPayment(ctx context.Context, billID int64, req AddPaymentRequest) (*domain.Payment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(billID)
	bill, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		s.locks.Unlock(billID)
		return nil, err
	}
	if bill.Closed() {
		s.locks.Unlock(billID)
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "pay"}
	}

	p := &domain.Payment{
		BillID: billID,
		Amount: req.Amount,
		Method: domain.PaymentMethod(req.Method),
		Actor:  req.Actor,
		PaidAt: time.Now().UTC(),
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		s.locks.Unlock(billID)
		return nil, err
	}
	s.locks.Unlock(billID)

	if _, err := s.bills.RecomputeTotals(ctx, billID); err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues("full").Inc()
	s.log.Info("payment recorded",
		zap.Int64("bill_id", billID),
		zap.Float64("amount", req.Amount),
		zap.String("method", req.Method))
	return p, nil
}

// AddPartialPayment settles specific item quantities of one order. The batch
// is all-or-nothing: every line is validated against the quantities already
// paid before anything is written, and the first failing line rejects the
// whole batch with an OverpaymentError naming it.
func (s *Service) AddPartialPayment(ctx context.Context, billID int64, req AddPartialPaymentRequest) (*domain.PartialPayment, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidQuantity
	}

	s.locks.Lock(billID)
	pp, err := s.addPartialLocked(ctx, billID, req)
	s.locks.Unlock(billID)
	if err != nil {
		return nil, err
	}

	if _, err := s.bills.RecomputeTotals(ctx, billID); err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues("partial").Inc()
	s.log.Info("partial payment recorded",
		zap.Int64("bill_id", billID),
		zap.Int64("order_number", req.OrderNumber),
		zap.Int("lines", len(pp.Items)))
	return pp, nil
}

func (s *Service) addPartialLocked(ctx context.Context, billID int64, req AddPartialPaymentRequest) (*domain.PartialPayment, error) {
	bill, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Closed() {
		return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "pay"}
	}

	order, err := s.orders.GetByBillAndNumber(ctx, billID, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderCancelled {
		return nil, &domain.InvalidStateError{Resource: "order", ID: order.ID, Status: string(order.Status), Op: "pay for"}
	}

	existing, err := s.payments.ListPartialPayments(ctx, billID)
	if err != nil {
		return nil, err
	}

	// batchSoFar catches the same item appearing twice within one batch
	batchSoFar := make(map[string]int)
	lines := make([]domain.PartialPaymentItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		item := order.Item(line.ItemName)
		if item == nil {
			return nil, ErrUnknownItem
		}
		already := paidQuantity(existing, req.OrderNumber, line.ItemName) + batchSoFar[line.ItemName]
		if already+line.Quantity > item.Quantity {
			metrics.OverpaymentsRejected.Inc()
			return nil, &domain.OverpaymentError{
				OrderNumber: req.OrderNumber,
				ItemName:    line.ItemName,
				Requested:   line.Quantity,
				AlreadyPaid: already,
				Ordered:     item.Quantity,
			}
		}
		batchSoFar[line.ItemName] += line.Quantity
		lines = append(lines, domain.PartialPaymentItem{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			Price:    item.Price,
		})
	}

	pp := &domain.PartialPayment{
		BillID:      billID,
		OrderNumber: req.OrderNumber,
		Items:       lines,
		Method:      domain.PaymentMethod(req.Method),
		PaidAt:      time.Now().UTC(),
	}
	if err := s.payments.CreatePartialPayment(ctx, pp); err != nil {
		return nil, err
	}
	return pp, nil
}

// GetPaidQuantityForItem sums the quantity settled across all partial
// payments matching the order number and item name.
func (s *Service) GetPaidQuantityForItem(ctx context.Context, billID, orderNumber int64, itemName string) (*PaidQuantityResponse, error) {
	order, err := s.orders.GetByBillAndNumber(ctx, billID, orderNumber)
	if err != nil {
		return nil, err
	}
	item := order.Item(itemName)
	if item == nil {
		return nil, ErrUnknownItem
	}

	partials, err := s.payments.ListPartialPayments(ctx, billID)
	if err != nil {
		return nil, err
	}
	paid := paidQuantity(partials, orderNumber, itemName)

	return &PaidQuantityResponse{
		OrderNumber: orderNumber,
		ItemName:    itemName,
		Ordered:     item.Quantity,
		Paid:        paid,
		Remaining:   item.Quantity - paid,
	}, nil
}

func (s *Service) ListLedger(ctx context.Context, billID int64) (*LedgerResponse, error) {
	if _, err := s.bills.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListPayments(ctx, billID)
	if err != nil {
		return nil, err
	}
	partials, err := s.payments.ListPartialPayments(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &LedgerResponse{Payments: payments, PartialPayments: partials}, nil
}

func paidQuantity(partials []domain.PartialPayment, orderNumber int64, itemName string) int {
	var sum int
	for _, pp := range partials {
		if pp.OrderNumber != orderNumber {
			continue
		}
		for _, it := range pp.Items {
			if it.ItemName == itemName {
				sum += it.Quantity
			}
		}
	}
	return sum
}
