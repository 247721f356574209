package simulate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/codec"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/ttn"
)

const simulatedGatewayID = "ttn-emulator-gw"

// Result is the structured outcome of a simulate call. Network-server
// failures are data, not errors: callers render them without any error
// handling of their own.
type Result struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Payload *ttn.SimulatedUplink `json:"payload,omitempty"`
	Error   string               `json:"error,omitempty"`
	Details string               `json:"details,omitempty"`
	Status  int                  `json:"status,omitempty"`
}

// Simulator builds network-server uplink envelopes from generated readings,
// submits them, and persists the accepted ones as telemetry.
type Simulator struct {
	gen    *Generator
	client *ttn.Client
	store  *store.Store
}

func NewSimulator(gen *Generator, client *ttn.Client, st *store.Store) *Simulator {
	return &Simulator{gen: gen, client: client, store: st}
}

func failure(errMsg, details string, status int) Result {
	return Result{Success: false, Error: errMsg, Details: details, Status: status}
}

// Simulate runs one uplink for a device. A nil reading draws a fresh one from
// the device's simulation parameters; a nil radio synthesizes metadata within
// realistic ranges.
func (s *Simulator) Simulate(ctx context.Context, device domain.Device, settings ttn.Settings, reading *domain.SensorReading, radio *RadioOptions) Result {
	if reading == nil {
		r := s.gen.Generate(device.Type, device.Simulation)
		reading = &r
	}
	if radio == nil {
		r := s.gen.Radio()
		radio = &r
	}

	frame := codec.Encode(*reading)
	ttnDeviceID := "eui-" + strings.ToLower(device.DevEUI)

	up := ttn.SimulatedUplink{
		EndDeviceIDs: ttn.EndDeviceIDs{
			DeviceID:       ttnDeviceID,
			ApplicationIDs: ttn.ApplicationIDs{ApplicationID: settings.AppID},
			DevEUI:         device.DevEUI,
		},
		UplinkMessage: ttn.UplinkMessage{
			FPort:          1,
			FrmPayload:     base64.StdEncoding.EncodeToString(frame),
			DecodedPayload: *reading,
			RxMetadata: []ttn.RxMetadata{{
				GatewayIDs:  ttn.GatewayIDs{GatewayID: simulatedGatewayID},
				RSSI:        radio.RSSI,
				ChannelRSSI: radio.RSSI,
				SNR:         radio.SNR,
			}},
			Settings: ttn.UplinkSettings{
				DataRate: ttn.DataRate{Lora: ttn.LoraDataRate{
					Bandwidth:       125000,
					SpreadingFactor: radio.SpreadingFactor,
				}},
				Frequency: ttn.FrequencyString(radio.FrequencyHz),
			},
			ReceivedAt: reading.Timestamp,
		},
	}

	res, err := s.client.SimulateUplink(ctx, settings, ttnDeviceID, up)
	if err != nil {
		slog.Warn("uplink submit failed", "device_id", device.ID, "error", err)
		return failure("network server unreachable", err.Error(), 0)
	}
	if !res.OK() {
		slog.Warn("uplink rejected by network server",
			"device_id", device.ID,
			"status", res.StatusCode)
		return failure("network server rejected uplink", string(res.Body), res.StatusCode)
	}

	decoded, err := json.Marshal(reading)
	if err != nil {
		return failure("encode telemetry", err.Error(), 0)
	}
	row := &domain.Telemetry{
		DeviceID:        device.ID,
		DevEUI:          device.DevEUI,
		RSSI:            radio.RSSI,
		SNR:             radio.SNR,
		SpreadingFactor: radio.SpreadingFactor,
		FrequencyHz:     radio.FrequencyHz,
		FrmPayload:      frame,
		DecodedJSON:     string(decoded),
		ReceivedAt:      reading.Timestamp,
	}
	if err := s.store.Telemetry().Create(ctx, row); err != nil {
		return failure("persist telemetry", err.Error(), 0)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("uplink simulated for %s at %s", device.DevEUI, reading.Timestamp.Format(time.RFC3339)),
		Payload: &up,
	}
}
