package ttn

import (
	"strconv"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
)

// Wire types for the v3 simulate-uplink envelope. Field names follow the
// network server's JSON, not Go conventions.

type ApplicationIDs struct {
	ApplicationID string `json:"application_id"`
}

type EndDeviceIDs struct {
	DeviceID       string         `json:"device_id"`
	ApplicationIDs ApplicationIDs `json:"application_ids"`
	DevEUI         string         `json:"dev_eui"`
}

type GatewayIDs struct {
	GatewayID string `json:"gateway_id"`
}

type RxMetadata struct {
	GatewayIDs  GatewayIDs `json:"gateway_ids"`
	RSSI        int        `json:"rssi"`
	ChannelRSSI int        `json:"channel_rssi"`
	SNR         float64    `json:"snr"`
}

type LoraDataRate struct {
	Bandwidth       int `json:"bandwidth"`
	SpreadingFactor int `json:"spreading_factor"`
}

type DataRate struct {
	Lora LoraDataRate `json:"lora"`
}

type UplinkSettings struct {
	DataRate  DataRate `json:"data_rate"`
	Frequency string   `json:"frequency"` // Hz, as a decimal string
}

type UplinkMessage struct {
	FPort          int                  `json:"f_port"`
	FrmPayload     string               `json:"frm_payload"` // base64 frame
	DecodedPayload domain.SensorReading `json:"decoded_payload"`
	RxMetadata     []RxMetadata         `json:"rx_metadata"`
	Settings       UplinkSettings       `json:"settings"`
	ReceivedAt     time.Time            `json:"received_at"`
}

type SimulatedUplink struct {
	EndDeviceIDs  EndDeviceIDs  `json:"end_device_ids"`
	UplinkMessage UplinkMessage `json:"uplink_message"`
}

// ApplicationInfo is the subset of the application record the connection test
// surfaces.
type ApplicationInfo struct {
	IDs         ApplicationIDs `json:"ids"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

func FrequencyString(hz uint64) string {
	return strconv.FormatUint(hz, 10)
}
