package domain

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// ControllerSegment is one contiguous stretch of a session during which the
// controller count was constant. Segments are append-only: the only mutations
// are closing the current open segment and opening the next one.
type ControllerSegment struct {
	ControllerCount int        `json:"controller_count"`
	From            time.Time  `json:"from"`
	To              *time.Time `json:"to,omitempty"`
}

type Session struct {
	ID         int64               `json:"id"`
	DeviceID   int64               `json:"device_id" validate:"required"`
	DeviceType DeviceType          `json:"device_type" validate:"required"`
	BillID     int64               `json:"bill_id"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    *time.Time          `json:"end_time,omitempty"`
	Status     SessionStatus       `json:"status"`
	Segments   []ControllerSegment `json:"controllers_history"`
	// FinalCost is written exactly once, when the session ends.
	FinalCost *float64  `json:"final_cost,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpenSegment returns the trailing segment with To == nil, or nil if the
// history is closed.
func (s *Session) OpenSegment() *ControllerSegment {
	if len(s.Segments) == 0 {
		return nil
	}
	last := &s.Segments[len(s.Segments)-1]
	if last.To != nil {
		return nil
	}
	return last
}
