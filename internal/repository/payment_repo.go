package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"gamecafe/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BillID    int64     `gorm:"column:bill_id;index"`
	Amount    float64   `gorm:"column:amount"`
	Method    string    `gorm:"column:method"`
	Actor     string    `gorm:"column:actor"`
	PaidAt    time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (paymentModel) TableName() string { return "payments" }

type partialPaymentModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	BillID      int64     `gorm:"column:bill_id;index"`
	OrderNumber int64     `gorm:"column:order_number;index"`
	Items       string    `gorm:"column:items;type:text"`
	Method      string    `gorm:"column:method"`
	PaidAt      time.Time `gorm:"column:paid_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (partialPaymentModel) TableName() string { return "partial_payments" }

func toDomainPayment(m paymentModel) domain.Payment {
	return domain.Payment{
		ID:     m.ID,
		BillID: m.BillID,
		Amount: m.Amount,
		Method: domain.PaymentMethod(m.Method),
		Actor:  m.Actor,
		PaidAt: m.PaidAt,
	}
}

func toDomainPartialPayment(m partialPaymentModel) (domain.PartialPayment, error) {
	var items []domain.PartialPaymentItem
	if m.Items != "" {
		if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
			return domain.PartialPayment{}, err
		}
	}
	return domain.PartialPayment{
		ID:          m.ID,
		BillID:      m.BillID,
		OrderNumber: m.OrderNumber,
		Items:       items,
		Method:      domain.PaymentMethod(m.Method),
		PaidAt:      m.PaidAt,
	}, nil
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	m := paymentModel{
		BillID: p.BillID,
		Amount: p.Amount,
		Method: string(p.Method),
		Actor:  p.Actor,
		PaidAt: p.PaidAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	p.ID = m.ID
	return nil
}

func (r *PaymentRepository) CreatePartialPayment(ctx context.Context, p *domain.PartialPayment) error {
	raw, err := json.Marshal(p.Items)
	if err != nil {
		return err
	}
	m := partialPaymentModel{
		BillID:      p.BillID,
		OrderNumber: p.OrderNumber,
		Items:       string(raw),
		Method:      string(p.Method),
		PaidAt:      p.PaidAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	p.ID = m.ID
	return nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, billID int64) ([]domain.Payment, error) {
	var ms []paymentModel
	tx := r.db.WithContext(ctx).Where("bill_id = ?", billID).Order("id").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Payment, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) ListPartialPayments(ctx context.Context, billID int64) ([]domain.PartialPayment, error) {
	var ms []partialPaymentModel
	tx := r.db.WithContext(ctx).Where("bill_id = ?", billID).Order("id").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.PartialPayment, 0, len(ms))
	for _, m := range ms {
		p, err := toDomainPartialPayment(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
