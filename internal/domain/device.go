package domain

import "time"

type DeviceType string

const (
	DevicePlaystation DeviceType = "playstation"
	DeviceComputer    DeviceType = "computer"
)

type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "available"
	DeviceActive      DeviceStatus = "active"
	DeviceMaintenance DeviceStatus = "maintenance"
)

type Device struct {
	ID        int64        `json:"id"`
	Type      DeviceType   `json:"type" validate:"required"`
	Number    int          `json:"number" validate:"required,gte=1"`
	Status    DeviceStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (t DeviceType) Valid() bool {
	return t == DevicePlaystation || t == DeviceComputer
}
