package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gamecafe/internal/domain"
)

type BillRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

type billModel struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	Status    string     `gorm:"column:status"`
	Subtotal  float64    `gorm:"column:subtotal"`
	Discount  float64    `gorm:"column:discount"`
	Tax       float64    `gorm:"column:tax"`
	Total     float64    `gorm:"column:total"`
	Paid      float64    `gorm:"column:paid"`
	Remaining float64    `gorm:"column:remaining"`
	DueDate   *time.Time `gorm:"column:due_date"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (billModel) TableName() string { return "bills" }

func toDomainBill(m billModel) *domain.Bill {
	return &domain.Bill{
		ID:        m.ID,
		Status:    domain.BillStatus(m.Status),
		Subtotal:  m.Subtotal,
		Discount:  m.Discount,
		Tax:       m.Tax,
		Total:     m.Total,
		Paid:      m.Paid,
		Remaining: m.Remaining,
		DueDate:   m.DueDate,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toBillModel(b *domain.Bill) billModel {
	return billModel{
		ID:        b.ID,
		Status:    string(b.Status),
		Subtotal:  b.Subtotal,
		Discount:  b.Discount,
		Tax:       b.Tax,
		Total:     b.Total,
		Paid:      b.Paid,
		Remaining: b.Remaining,
		DueDate:   b.DueDate,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (r *BillRepository) Create(ctx context.Context, b *domain.Bill) error {
	m := toBillModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBill(m)
	return nil
}

func (r *BillRepository) GetByID(ctx context.Context, id int64) (*domain.Bill, error) {
	var m billModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "bill", ID: id}
		}
		return nil, tx.Error
	}
	return toDomainBill(m), nil
}

// Save writes the recomputed money fields and status in one UPDATE.
func (r *BillRepository) Save(ctx context.Context, b *domain.Bill) error {
	tx := r.db.WithContext(ctx).Model(&billModel{}).Where("id = ?", b.ID).Updates(map[string]any{
		"status":     string(b.Status),
		"subtotal":   b.Subtotal,
		"discount":   b.Discount,
		"tax":        b.Tax,
		"total":      b.Total,
		"paid":       b.Paid,
		"remaining":  b.Remaining,
		"due_date":   b.DueDate,
		"updated_at": time.Now().UTC(),
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "bill", ID: b.ID}
	}
	return nil
}
