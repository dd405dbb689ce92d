package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gamecafe/internal/domain"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

type deviceModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Type      string    `gorm:"column:type;index:idx_device_type_number,unique"`
	Number    int       `gorm:"column:number;index:idx_device_type_number,unique"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (deviceModel) TableName() string { return "devices" }

func toDomainDevice(m deviceModel) *domain.Device {
	return &domain.Device{
		ID:        m.ID,
		Type:      domain.DeviceType(m.Type),
		Number:    m.Number,
		Status:    domain.DeviceStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDeviceModel(d *domain.Device) deviceModel {
	return deviceModel{
		ID:        d.ID,
		Type:      string(d.Type),
		Number:    d.Number,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domain.Device) error {
	m := toDeviceModel(d)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*d = *toDomainDevice(m)
	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id int64) (*domain.Device, error) {
	var m deviceModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "device", ID: id}
		}
		return nil, tx.Error
	}
	return toDomainDevice(m), nil
}

func (r *DeviceRepository) List(ctx context.Context) ([]domain.Device, error) {
	var ms []deviceModel
	tx := r.db.WithContext(ctx).Order("type, number").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Device, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainDevice(m))
	}
	return out, nil
}

// Acquire atomically flips an available device to active. The WHERE guard is
// the device's mutex: two concurrent starts race on the same row and only one
// UPDATE matches.
func (r *DeviceRepository) Acquire(ctx context.Context, id int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&deviceModel{}).
		Where("id = ? AND status = ?", id, string(domain.DeviceAvailable)).
		Updates(map[string]any{"status": string(domain.DeviceActive), "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// Release puts an active device back in the available pool.
func (r *DeviceRepository) Release(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&deviceModel{}).
		Where("id = ? AND status = ?", id, string(domain.DeviceActive)).
		Updates(map[string]any{"status": string(domain.DeviceAvailable), "updated_at": time.Now().UTC()}).Error
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, id int64, status domain.DeviceStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&deviceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "device", ID: id}
	}
	return nil
}
