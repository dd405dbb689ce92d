package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"gamecafe/internal/domain"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionModel struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	DeviceID   int64      `gorm:"column:device_id;index"`
	DeviceType string     `gorm:"column:device_type"`
	BillID     int64      `gorm:"column:bill_id;index"`
	StartTime  time.Time  `gorm:"column:start_time"`
	EndTime    *time.Time `gorm:"column:end_time"`
	Status     string     `gorm:"column:status"`
	Segments   string     `gorm:"column:segments;type:text"`
	FinalCost  *float64   `gorm:"column:final_cost"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string { return "sessions" }

func toDomainSession(m sessionModel) (*domain.Session, error) {
	var segs []domain.ControllerSegment
	if m.Segments != "" {
		if err := json.Unmarshal([]byte(m.Segments), &segs); err != nil {
			return nil, err
		}
	}
	return &domain.Session{
		ID:         m.ID,
		DeviceID:   m.DeviceID,
		DeviceType: domain.DeviceType(m.DeviceType),
		BillID:     m.BillID,
		StartTime:  m.StartTime,
		EndTime:    m.EndTime,
		Status:     domain.SessionStatus(m.Status),
		Segments:   segs,
		FinalCost:  m.FinalCost,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

func toSessionModel(s *domain.Session) (sessionModel, error) {
	raw, err := json.Marshal(s.Segments)
	if err != nil {
		return sessionModel{}, err
	}
	return sessionModel{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		DeviceType: string(s.DeviceType),
		BillID:     s.BillID,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Status:     string(s.Status),
		Segments:   string(raw),
		FinalCost:  s.FinalCost,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}, nil
}

// ErrDeviceSessionExists maps the partial unique index on active sessions.
var ErrDeviceSessionExists = errors.New("device already has an active session")

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	m, err := toSessionModel(s)
	if err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		if pgErr, ok := tx.Error.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" {
				return ErrDeviceSessionExists
			}
		}
		return tx.Error
	}
	got, err := toDomainSession(m)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	var m sessionModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "session", ID: id}
		}
		return nil, tx.Error
	}
	return toDomainSession(m)
}

// Save persists the full mutable state of a session (segments, status, end
// time, final cost, bill reference).
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	m, err := toSessionModel(s)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&sessionModel{}).Where("id = ?", s.ID).Updates(map[string]any{
		"bill_id":    m.BillID,
		"end_time":   m.EndTime,
		"status":     m.Status,
		"segments":   m.Segments,
		"final_cost": m.FinalCost,
		"updated_at": m.UpdatedAt,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "session", ID: s.ID}
	}
	return nil
}

func (r *SessionRepository) ListByBill(ctx context.Context, billID int64) ([]domain.Session, error) {
	var ms []sessionModel
	tx := r.db.WithContext(ctx).Where("bill_id = ?", billID).Order("id").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Session, 0, len(ms))
	for _, m := range ms {
		s, err := toDomainSession(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *SessionRepository) GetActiveByDevice(ctx context.Context, deviceID int64) (*domain.Session, error) {
	var m sessionModel
	tx := r.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, string(domain.SessionActive)).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainSession(m)
}
