package payment

import "errors"

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownItem     = errors.New("item not found in order")
)
