package domain

import "time"

// SimulationParams bound the synthetic readings a device produces. MinValue
// and MaxValue apply to the device's primary measurement; the humidity bounds
// are optional overrides for the secondary humidity draw on temperature and
// door devices.
type SimulationParams struct {
	IntervalSeconds int      `gorm:"not null;default:60" json:"interval"`
	MinValue        float64  `gorm:"not null" json:"minValue"`
	MaxValue        float64  `gorm:"not null" json:"maxValue"`
	MinHumidity     *float64 `json:"minHumidity,omitempty"`
	MaxHumidity     *float64 `json:"maxHumidity,omitempty"`
}

type Device struct {
	ID             DeviceID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID string           `gorm:"type:text;not null;index" json:"organizationId"`
	DevEUI         string           `gorm:"column:dev_eui;type:varchar(16);not null;uniqueIndex:ux_devices_dev_eui" json:"devEui"`
	ApplicationID  *string          `gorm:"type:text" json:"applicationId,omitempty"`
	Type           DeviceType       `gorm:"type:varchar(16);not null" json:"type"`
	Status         DeviceStatus     `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	Simulation     SimulationParams `gorm:"embedded;embeddedPrefix:sim_" json:"simulationParams"`
	CreatedAt      time.Time        `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time        `gorm:"not null" json:"updatedAt"`
}

func (Device) TableName() string { return "devices" }
