package domain

import "time"

// SensorReading is the transient value produced by the reading generator and
// consumed by the payload codec. It is never persisted in this form; only the
// binary frame and its decoded JSON mirror are stored.
type SensorReading struct {
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	DoorOpen    *bool     `json:"door_open,omitempty"`
	Battery     *float64  `json:"battery,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
