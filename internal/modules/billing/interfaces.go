package billing

import (
	"context"

	"gamecafe/internal/domain"
)

// BillRepository defines the bill persistence operations this module needs
type BillRepository interface {
	Create(ctx context.Context, b *domain.Bill) error
	GetByID(ctx context.Context, id int64) (*domain.Bill, error)
	Save(ctx context.Context, b *domain.Bill) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByBill(ctx context.Context, billID int64) ([]domain.Order, error)
	NextNumber(ctx context.Context, billID int64) (int64, error)
	AttachToBill(ctx context.Context, id, billID, number int64) error
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	UpdateItems(ctx context.Context, id int64, items []domain.OrderItem) error
}

// SessionStore is the slice of session persistence the aggregator needs to
// attach sessions and fold their costs into totals.
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	ListByBill(ctx context.Context, billID int64) ([]domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
}

type PaymentReader interface {
	ListPayments(ctx context.Context, billID int64) ([]domain.Payment, error)
	ListPartialPayments(ctx context.Context, billID int64) ([]domain.PartialPayment, error)
}
