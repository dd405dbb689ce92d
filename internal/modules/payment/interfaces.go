package payment

import (
	"context"

	"gamecafe/internal/domain"
)

type paymentRepo interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	CreatePartialPayment(ctx context.Context, p *domain.PartialPayment) error
	ListPayments(ctx context.Context, billID int64) ([]domain.Payment, error)
	ListPartialPayments(ctx context.Context, billID int64) ([]domain.PartialPayment, error)
}

type orderReader interface {
	GetByBillAndNumber(ctx context.Context, billID, number int64) (*domain.Order, error)
}

type billService interface {
	GetBill(ctx context.Context, id int64) (*domain.Bill, error)
	RecomputeTotals(ctx context.Context, billID int64) (*domain.Bill, error)
}
