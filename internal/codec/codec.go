// Package codec implements the fixed 5-byte sensor frame exchanged with the
// network server. The layout is a closed two-party format:
//
//	byte 0-1  temperature, big-endian signed 16-bit, 0.01 degC units, 0xFFFF = absent
//	byte 2    humidity, unsigned 8-bit, 0.5 %RH units, 0xFF = absent
//	byte 3    battery, unsigned 8-bit, 0.01 V units with a 2.0 V bias, 0xFF = absent
//	byte 4    flags, bit 0 = door open
//
// Values are rounded to the nearest unit before scaling. The codec never
// clamps; keeping readings in range is the generator's job.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
)

const FrameLen = 5

const (
	temperatureAbsent = 0xFFFF
	humidityAbsent    = 0xFF
	batteryAbsent     = 0xFF

	// The 3.0-3.6 V battery range does not fit an unsigned byte at 0.01 V/LSB,
	// so the wire value is biased by 2.0 V (representable span 2.00-4.54 V).
	batteryBiasVolts = 2.0

	flagDoorOpen = 0x01
)

// Encode is total: absent fields become sentinels, never an error.
func Encode(r domain.SensorReading) []byte {
	frame := make([]byte, FrameLen)

	if r.Temperature != nil {
		binary.BigEndian.PutUint16(frame[0:2], uint16(int16(math.Round(*r.Temperature*100))))
	} else {
		binary.BigEndian.PutUint16(frame[0:2], temperatureAbsent)
	}

	if r.Humidity != nil {
		frame[2] = byte(math.Round(*r.Humidity * 2))
	} else {
		frame[2] = humidityAbsent
	}

	if r.Battery != nil {
		frame[3] = byte(math.Round((*r.Battery - batteryBiasVolts) * 100))
	} else {
		frame[3] = batteryAbsent
	}

	if r.DoorOpen != nil && *r.DoorOpen {
		frame[4] |= flagDoorOpen
	}

	return frame
}

// Decode reverses Encode within quantization error. The flags byte carries no
// presence bit, so DoorOpen always decodes to a concrete value.
func Decode(frame []byte) (domain.SensorReading, error) {
	if len(frame) != FrameLen {
		return domain.SensorReading{}, fmt.Errorf("codec: frame length %d, want %d", len(frame), FrameLen)
	}

	var r domain.SensorReading

	if raw := binary.BigEndian.Uint16(frame[0:2]); raw != temperatureAbsent {
		t := float64(int16(raw)) / 100
		r.Temperature = &t
	}
	if frame[2] != humidityAbsent {
		h := float64(frame[2]) / 2
		r.Humidity = &h
	}
	if frame[3] != batteryAbsent {
		b := float64(frame[3])/100 + batteryBiasVolts
		r.Battery = &b
	}
	open := frame[4]&flagDoorOpen != 0
	r.DoorOpen = &open

	return r, nil
}
