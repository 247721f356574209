package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/authz"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/config"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/observability/metrics"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/simulate"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/ttn"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/webhook"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const signatureHeader = "X-FrostGuard-Signature"

var devEUIPattern = regexp.MustCompile(`^[0-9A-Fa-f]{16}$`)

type Handler struct {
	cfg       config.Config
	store     *store.Store
	processor *webhook.Processor
	simulator *simulate.Simulator
	ttn       *ttn.Client
}

func NewHandler(cfg config.Config, st *store.Store, processor *webhook.Processor, sim *simulate.Simulator, ttnClient *ttn.Client) *Handler {
	return &Handler{cfg: cfg, store: st, processor: processor, simulator: sim, ttn: ttnClient}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Webhook ingests one FrostGuard delivery: verify, log, dispatch, mark.
// The event is logged before any side effect, whether or not the signature
// verified, so every delivery stays auditable.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	sig := r.Header.Get(signatureHeader)
	if sig == "" {
		// No signature at all: reject before touching the body.
		metrics.WebhookDeliveriesTotal.WithLabelValues("unknown", "unsigned").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "missing signature"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unreadable body"})
		return
	}

	var env webhook.Envelope
	parseErr := json.Unmarshal(body, &env)
	eventType := env.EventType
	if eventType == "" {
		eventType = "unknown"
	}

	valid := webhook.VerifySignature(sig, body, h.cfg.WebhookSecret)

	ev := &domain.WebhookEvent{
		EventType:      env.EventType,
		EventID:        env.EventID,
		RawPayload:     body,
		Signature:      sig,
		SignatureValid: valid,
		SourceIP:       clientIP(r),
		UserAgent:      r.UserAgent(),
	}
	if err := h.processor.Log(r.Context(), ev); err != nil {
		slog.Error("log webhook delivery", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
		return
	}

	if !valid {
		if !h.cfg.WebhookAllowUnsigned {
			metrics.WebhookDeliveriesTotal.WithLabelValues(eventType, "invalid_signature").Inc()
			if err := h.processor.MarkProcessed(r.Context(), ev.ID, false, "invalid signature"); err != nil {
				slog.Error("mark webhook event", "error", err)
			}
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid signature", "event_id": env.EventID})
			return
		}
		slog.Warn("SIGNATURE BYPASS: processing delivery with invalid signature",
			"event_type", env.EventType,
			"event_id", env.EventID,
			"source_ip", ev.SourceIP)
	}

	if parseErr != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("unknown", "failure").Inc()
		if err := h.processor.MarkProcessed(r.Context(), ev.ID, false, "invalid JSON body"); err != nil {
			slog.Error("mark webhook event", "error", err)
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}

	if err := h.processor.Process(r.Context(), ev.ID, env.EventType, env.Data); err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues(eventType, "failure").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnknownEventType) || errors.Is(err, domain.ErrInvalidPayload) {
			status = http.StatusBadRequest
		}
		slog.Warn("webhook processing failed",
			"event_type", env.EventType,
			"event_id", env.EventID,
			"error", err)
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error(), "event_id": env.EventID})
		return
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues(eventType, "success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

type simulateRequest struct {
	AppID   string                 `json:"app_id"`
	APIKey  string                 `json:"api_key"`
	Region  string                 `json:"region"`
	Payload *domain.SensorReading  `json:"payload,omitempty"`
	Radio   *simulate.RadioOptions `json:"radio,omitempty"`
}

// SimulateUplink generates (or accepts) a reading, submits the uplink to the
// network server, and persists telemetry. API-level failures come back as a
// structured body with HTTP 200; the status code only reflects this service.
func (h *Handler) SimulateUplink(w http.ResponseWriter, r *http.Request) {
	ac, ok := authz.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "unauthorized"})
		return
	}
	deviceID, err := uuid.Parse(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid device id"})
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "bad request"})
		return
	}

	device, err := h.store.Devices().GetForOrg(r.Context(), deviceID, ac.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "device not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
		return
	}

	appID := req.AppID
	if appID == "" && device.ApplicationID != nil {
		appID = *device.ApplicationID
	}
	if appID == "" || req.APIKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "app_id and api_key required"})
		return
	}

	settings := ttn.Settings{AppID: appID, APIKey: req.APIKey, Region: req.Region}
	res := h.simulator.Simulate(r.Context(), *device, settings, req.Payload, req.Radio)

	result := "success"
	if !res.Success {
		result = "failure"
	}
	metrics.UplinksSimulatedTotal.WithLabelValues(result).Inc()

	writeJSON(w, http.StatusOK, res)
}

// TestConnection probes the network server with the supplied credentials.
// HTTP 200 either way; the body carries the outcome.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var settings ttn.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "bad request"})
		return
	}
	if settings.AppID == "" || settings.APIKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "app_id and api_key required"})
		return
	}

	app, res, err := h.ttn.TestConnection(r.Context(), settings)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	if app == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "network server returned " + http.StatusText(res.StatusCode),
			"status":  res.StatusCode,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "application": app})
}

type createDeviceRequest struct {
	DevEUI        string                  `json:"devEui"`
	Type          domain.DeviceType       `json:"type"`
	ApplicationID *string                 `json:"applicationId,omitempty"`
	Simulation    domain.SimulationParams `json:"simulationParams"`
}

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ac, _ := authz.FromContext(r.Context())
	devices, err := h.store.Devices().ListByOrg(r.Context(), ac.OrganizationID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	ac, _ := authz.FromContext(r.Context())
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	if !devEUIPattern.MatchString(req.DevEUI) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "devEui must be 16 hex characters"})
		return
	}
	switch req.Type {
	case domain.DeviceTypeTemperature, domain.DeviceTypeHumidity, domain.DeviceTypeDoor:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown device type"})
		return
	}

	now := time.Now().UTC()
	device := &domain.Device{
		OrganizationID: ac.OrganizationID,
		DevEUI:         strings.ToUpper(req.DevEUI),
		ApplicationID:  req.ApplicationID,
		Type:           req.Type,
		Status:         domain.DeviceStatusActive,
		Simulation:     req.Simulation,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.store.Devices().Create(r.Context(), device); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	ac, _ := authz.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid device id"})
		return
	}
	device, err := h.store.Devices().GetForOrg(r.Context(), id, ac.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "device not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, device)
}

type updateDeviceRequest struct {
	ApplicationID   *string              `json:"applicationId,omitempty"`
	Status          *domain.DeviceStatus `json:"status,omitempty"`
	IntervalSeconds *int                 `json:"interval,omitempty"`
	MinValue        *float64             `json:"minValue,omitempty"`
	MaxValue        *float64             `json:"maxValue,omitempty"`
	MinHumidity     *float64             `json:"minHumidity,omitempty"`
	MaxHumidity     *float64             `json:"maxHumidity,omitempty"`
}

func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	ac, _ := authz.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid device id"})
		return
	}
	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.DeviceStatusActive, domain.DeviceStatusInactive, domain.DeviceStatusError:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown status"})
			return
		}
	}
	patch := store.DevicePatch{
		ApplicationID:   req.ApplicationID,
		Status:          req.Status,
		IntervalSeconds: req.IntervalSeconds,
		MinValue:        req.MinValue,
		MaxValue:        req.MaxValue,
		MinHumidity:     req.MinHumidity,
		MaxHumidity:     req.MaxHumidity,
	}
	if err := h.store.Devices().Update(r.Context(), id, ac.OrganizationID, patch); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "device not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ac, _ := authz.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid device id"})
		return
	}
	if err := h.store.Devices().Delete(r.Context(), id, ac.OrganizationID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "device not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
