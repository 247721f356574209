package http

import (
	"net/http"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/authz"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, auth *authz.TokenAuthenticator) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate by MAC, not bearer token.
	r.Post("/api/webhooks/frostguard", h.Webhook)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware)

		pr.Get("/api/devices", h.ListDevices)
		pr.With(authz.RequireMutate).Post("/api/devices", h.CreateDevice)
		pr.Get("/api/devices/{deviceID}", h.GetDevice)
		pr.With(authz.RequireMutate).Put("/api/devices/{deviceID}", h.UpdateDevice)
		pr.With(authz.RequireDelete).Delete("/api/devices/{deviceID}", h.DeleteDevice)

		pr.With(authz.RequireMutate).Post("/api/ttn/simulate/{deviceID}", h.SimulateUplink)
		pr.With(authz.RequireMutate).Post("/api/ttn/test-connection", h.TestConnection)
	})

	return r
}
