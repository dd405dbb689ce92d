package domain

import "fmt"

// ConflictError: the resource is already held, e.g. a device that already has
// an active session.
type ConflictError struct {
	Resource string
	ID       int64
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Resource, e.ID, e.Reason)
}

// InvalidStateError: the operation is not valid for the resource's current
// status, e.g. ending a session that is not active.
type InvalidStateError struct {
	Resource string
	ID       int64
	Status   string
	Op       string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in status %q", e.Op, e.Resource, e.ID, e.Status)
}

// OverpaymentError: a partial-payment line would push an item's paid quantity
// past its ordered quantity. It names the offending line so the caller can
// show an actionable message.
type OverpaymentError struct {
	OrderNumber int64
	ItemName    string
	Requested   int
	AlreadyPaid int
	Ordered     int
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("order %d item %q: requested %d with %d already paid exceeds ordered quantity %d",
		e.OrderNumber, e.ItemName, e.Requested, e.AlreadyPaid, e.Ordered)
}

// NotFoundError: unknown bill/session/order/device id.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}
