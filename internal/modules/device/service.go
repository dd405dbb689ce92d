package device

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"gamecafe/internal/domain"
)

var ErrValidation = errors.New("validation error")

type Repository interface {
	Create(ctx context.Context, d *domain.Device) error
	GetByID(ctx context.Context, id int64) (*domain.Device, error)
	List(ctx context.Context) ([]domain.Device, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DeviceStatus) error
}

// Service is the thin registry surface: the heavy lifting (the active slot)
// belongs to the session tracker.
type Service struct {
	devices Repository
	log     *zap.Logger
}

func NewService(devices Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{devices: devices, log: log}
}

func (s *Service) Register(ctx context.Context, deviceType domain.DeviceType, number int) (*domain.Device, error) {
	if !deviceType.Valid() || number < 1 {
		return nil, ErrValidation
	}
	d := &domain.Device{
		Type:   deviceType,
		Number: number,
		Status: domain.DeviceAvailable,
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("device registered",
		zap.Int64("device_id", d.ID),
		zap.String("type", string(deviceType)),
		zap.Int("number", number))
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Device, error) {
	return s.devices.List(ctx)
}

// SetMaintenance toggles a device in and out of the maintenance pool. A
// device with a running session cannot be pulled.
func (s *Service) SetMaintenance(ctx context.Context, id int64, maintenance bool) (*domain.Device, error) {
	d, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if maintenance {
		if d.Status == domain.DeviceActive {
			return nil, &domain.ConflictError{Resource: "device", ID: id, Reason: "has an active session"}
		}
		d.Status = domain.DeviceMaintenance
	} else {
		if d.Status != domain.DeviceMaintenance {
			return nil, &domain.InvalidStateError{Resource: "device", ID: id, Status: string(d.Status), Op: "restore"}
		}
		d.Status = domain.DeviceAvailable
	}

	if err := s.devices.UpdateStatus(ctx, id, d.Status); err != nil {
		return nil, err
	}
	return d, nil
}
