package session

import (
	"context"

	"gamecafe/internal/domain"
)

// SessionRepository defines the session persistence operations this module needs
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	GetActiveByDevice(ctx context.Context, deviceID int64) (*domain.Session, error)
}

// DeviceRepository is the device-registry surface: lookup plus the atomic
// active-slot check-and-set.
type DeviceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Device, error)
	Acquire(ctx context.Context, id int64) (bool, error)
	Release(ctx context.Context, id int64) error
}

// BillService is the slice of the bill aggregator a session needs: a bill to
// attach to at start, and a recompute after the final cost lands.
type BillService interface {
	CreateBill(ctx context.Context) (*domain.Bill, error)
	GetBill(ctx context.Context, id int64) (*domain.Bill, error)
	RecomputeTotals(ctx context.Context, billID int64) (*domain.Bill, error)
}
