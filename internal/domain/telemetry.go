package domain

import "time"

// Telemetry is one persisted simulated uplink: the radio metadata the envelope
// carried plus the reading's binary frame and decoded JSON mirror.
type Telemetry struct {
	ID              TelemetryID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID        DeviceID    `gorm:"type:uuid;not null;index" json:"deviceId"`
	DevEUI          string      `gorm:"column:dev_eui;type:varchar(16);not null;index" json:"devEui"`
	RSSI            int         `gorm:"column:rssi;not null" json:"rssi"`
	SNR             float64     `gorm:"column:snr;not null" json:"snr"`
	SpreadingFactor int         `gorm:"not null" json:"spreadingFactor"`
	FrequencyHz     uint64      `gorm:"column:frequency_hz;not null" json:"frequencyHz"`
	FrmPayload      []byte      `gorm:"type:bytes;not null" json:"frmPayload"`
	DecodedJSON     string      `gorm:"column:decoded_json;type:text;not null" json:"decodedJson"`
	ReceivedAt      time.Time   `gorm:"not null;index" json:"receivedAt"`
}

func (Telemetry) TableName() string { return "telemetry" }
