package billing

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrStatusTransition  = errors.New("invalid order status transition")
	ErrPreparedOverCount = errors.New("prepared count exceeds ordered quantity")
)
