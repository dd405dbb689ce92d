package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gamecafe/internal/domain"
	"gamecafe/internal/pkg/keylock"
	"gamecafe/internal/pkg/metrics"
	"gamecafe/internal/pkg/pricing"
	"gamecafe/internal/repository"
)

type Service struct {
	sessions SessionRepository
	devices  DeviceRepository
	bills    BillService
	rates    pricing.Config
	locks    *keylock.KeyLock
	log      *zap.Logger
}

func NewService(sessions SessionRepository, devices DeviceRepository, bills BillService, rates pricing.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		sessions: sessions,
		devices:  devices,
		bills:    bills,
		rates:    rates,
		locks:    keylock.New(),
		log:      log,
	}
}

// Start opens a rental session on a device. The device's active slot is taken
// with an atomic check-and-set, so two concurrent starts on one device
// resolve to a single session and one ConflictError.
func (s *Service) Start(ctx context.Context, req StartSessionRequest) (*domain.Session, error) {
	if req.Controllers < 1 {
		return nil, ErrValidation
	}

	device, err := s.devices.GetByID(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.Status == domain.DeviceMaintenance {
		return nil, ErrDeviceMaintenance
	}

	billID := req.BillID
	if billID != 0 {
		bill, err := s.bills.GetBill(ctx, billID)
		if err != nil {
			return nil, err
		}
		if bill.Closed() {
			return nil, &domain.InvalidStateError{Resource: "bill", ID: billID, Status: string(bill.Status), Op: "attach session to"}
		}
	}

	ok, err := s.devices.Acquire(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.deviceBusy(ctx, req.DeviceID)
	}

	if billID == 0 {
		bill, err := s.bills.CreateBill(ctx)
		if err != nil {
			_ = s.devices.Release(ctx, req.DeviceID)
			return nil, err
		}
		billID = bill.ID
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		DeviceID:   device.ID,
		DeviceType: device.Type,
		BillID:     billID,
		StartTime:  now,
		Status:     domain.SessionActive,
		Segments: []domain.ControllerSegment{
			{ControllerCount: req.Controllers, From: now},
		},
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		_ = s.devices.Release(ctx, req.DeviceID)
		if errors.Is(err, repository.ErrDeviceSessionExists) {
			return nil, s.deviceBusy(ctx, req.DeviceID)
		}
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues(string(device.Type)).Inc()
	s.log.Info("session started",
		zap.Int64("session_id", sess.ID),
		zap.Int64("device_id", device.ID),
		zap.String("device_type", string(device.Type)),
		zap.Int64("bill_id", billID),
		zap.Int("controllers", req.Controllers))
	return sess, nil
}

// deviceBusy names the session occupying the device when it can be found, so
// the caller knows which session to end.
func (s *Service) deviceBusy(ctx context.Context, deviceID int64) error {
	reason := "already has an active session"
	if active, err := s.sessions.GetActiveByDevice(ctx, deviceID); err == nil {
		reason = fmt.Sprintf("already has active session %d", active.ID)
	}
	return &domain.ConflictError{Resource: "device", ID: deviceID, Reason: reason}
}

// UpdateControllers closes the open segment and opens a new one with the new
// count. Equal counts are a no-op so zero-duration segments never appear.
func (s *Service) UpdateControllers(ctx context.Context, sessionID int64, newCount int) (*domain.Session, error) {
	if newCount < 1 {
		return nil, ErrValidation
	}

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != domain.SessionActive {
		return nil, &domain.InvalidStateError{Resource: "session", ID: sessionID, Status: string(sess.Status), Op: "update controllers on"}
	}

	open := sess.OpenSegment()
	if open == nil {
		return nil, &domain.InvalidStateError{Resource: "session", ID: sessionID, Status: string(sess.Status), Op: "update controllers on"}
	}
	if open.ControllerCount == newCount {
		return sess, nil
	}

	now := time.Now().UTC()
	open.To = &now
	sess.Segments = append(sess.Segments, domain.ControllerSegment{ControllerCount: newCount, From: now})
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	metrics.ControllerChanges.Inc()
	s.log.Info("controller count changed",
		zap.Int64("session_id", sessionID),
		zap.Int("controllers", newCount))
	return sess, nil
}

// End closes the session exactly once: the open segment is sealed, the final
// cost is integrated over the full history, the device goes back to the pool
// and the bill is recomputed. A second End returns InvalidStateError and
// leaves the stored final cost untouched.
func (s *Service) End(ctx context.Context, sessionID int64) (*domain.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	return s.close(ctx, sessionID, true)
}

// Cancel ends an active session without billing it.
func (s *Service) Cancel(ctx context.Context, sessionID int64) (*domain.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	return s.close(ctx, sessionID, false)
}

func (s *Service) close(ctx context.Context, sessionID int64, billed bool) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	op := "end"
	if !billed {
		op = "cancel"
	}
	if sess.Status != domain.SessionActive {
		return nil, &domain.InvalidStateError{Resource: "session", ID: sessionID, Status: string(sess.Status), Op: op}
	}

	now := time.Now().UTC()
	if open := sess.OpenSegment(); open != nil {
		open.To = &now
	}
	sess.EndTime = &now

	if billed {
		cost := s.rates.Cost(sess.Segments, sess.DeviceType, now)
		sess.FinalCost = &cost
		sess.Status = domain.SessionCompleted
	} else {
		sess.Status = domain.SessionCancelled
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	// The session is sealed at this point; failures below surface to the
	// caller without reopening it or touching the stored final cost.
	if err := s.devices.Release(ctx, sess.DeviceID); err != nil {
		s.log.Error("failed to release device after session close",
			zap.Int64("session_id", sessionID),
			zap.Int64("device_id", sess.DeviceID),
			zap.Error(err))
		return nil, fmt.Errorf("session %d closed but device %d not released: %w", sessionID, sess.DeviceID, err)
	}
	if sess.BillID != 0 {
		if _, err := s.bills.RecomputeTotals(ctx, sess.BillID); err != nil {
			s.log.Error("failed to recompute bill after session close",
				zap.Int64("session_id", sessionID),
				zap.Int64("bill_id", sess.BillID),
				zap.Error(err))
			return nil, fmt.Errorf("session %d closed but bill %d not recomputed: %w", sessionID, sess.BillID, err)
		}
	}

	metrics.SessionsEnded.WithLabelValues(string(sess.DeviceType)).Inc()
	fields := []zap.Field{
		zap.Int64("session_id", sessionID),
		zap.String("status", string(sess.Status)),
	}
	if sess.FinalCost != nil {
		fields = append(fields, zap.Float64("final_cost", *sess.FinalCost))
	}
	s.log.Info("session closed", fields...)
	return sess, nil
}

// LiveCost prices the session as of now without touching its history. For a
// closed session it returns the stored final cost.
func (s *Service) LiveCost(ctx context.Context, sessionID int64) (*LiveCostResponse, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.FinalCost != nil {
		return &LiveCostResponse{SessionID: sessionID, Cost: *sess.FinalCost, Final: true}, nil
	}
	if sess.Status == domain.SessionCancelled {
		return &LiveCostResponse{SessionID: sessionID, Cost: 0, Final: true}, nil
	}
	cost := s.rates.Cost(sess.Segments, sess.DeviceType, time.Now().UTC())
	return &LiveCostResponse{SessionID: sessionID, Cost: cost, Final: false}, nil
}

// GetByID retrieves a session by ID
func (s *Service) GetByID(ctx context.Context, sessionID int64) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}
