package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"gamecafe/internal/domain"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BillID    int64     `gorm:"column:bill_id;index:idx_order_bill_number,unique"`
	Number    int64     `gorm:"column:number;index:idx_order_bill_number,unique"`
	Status    string    `gorm:"column:status"`
	Items     string    `gorm:"column:items;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string { return "orders" }

func toDomainOrder(m orderModel) (*domain.Order, error) {
	var items []domain.OrderItem
	if m.Items != "" {
		if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
			return nil, err
		}
	}
	return &domain.Order{
		ID:        m.ID,
		BillID:    m.BillID,
		Number:    m.Number,
		Status:    domain.OrderStatus(m.Status),
		Items:     items,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func toOrderModel(o *domain.Order) (orderModel, error) {
	raw, err := json.Marshal(o.Items)
	if err != nil {
		return orderModel{}, err
	}
	return orderModel{
		ID:        o.ID,
		BillID:    o.BillID,
		Number:    o.Number,
		Status:    string(o.Status),
		Items:     string(raw),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	m, err := toOrderModel(o)
	if err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	got, err := toDomainOrder(m)
	if err != nil {
		return err
	}
	*o = *got
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var m orderModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "order", ID: id}
		}
		return nil, tx.Error
	}
	return toDomainOrder(m)
}

func (r *OrderRepository) GetByBillAndNumber(ctx context.Context, billID, number int64) (*domain.Order, error) {
	var m orderModel
	tx := r.db.WithContext(ctx).Where("bill_id = ? AND number = ?", billID, number).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "order", ID: number}
		}
		return nil, tx.Error
	}
	return toDomainOrder(m)
}

func (r *OrderRepository) ListByBill(ctx context.Context, billID int64) ([]domain.Order, error) {
	var ms []orderModel
	tx := r.db.WithContext(ctx).Where("bill_id = ?", billID).Order("number").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Order, 0, len(ms))
	for _, m := range ms {
		o, err := toDomainOrder(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// NextNumber returns the next per-bill order number.
func (r *OrderRepository) NextNumber(ctx context.Context, billID int64) (int64, error) {
	var max int64
	tx := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("bill_id = ?", billID).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return max + 1, nil
}

// AttachToBill adopts a detached order into a bill under a fresh per-bill
// number.
func (r *OrderRepository) AttachToBill(ctx context.Context, id, billID, number int64) error {
	tx := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"bill_id": billID, "number": number, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "order", ID: id}
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "order", ID: id}
	}
	return nil
}

// UpdateItems rewrites the item snapshot, used for prepared-count updates.
func (r *OrderRepository) UpdateItems(ctx context.Context, id int64, items []domain.OrderItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"items": string(raw), "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "order", ID: id}
	}
	return nil
}
