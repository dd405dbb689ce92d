package session

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrDeviceMaintenance = errors.New("device is under maintenance")
)
