package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	AuthenticationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authentication_attempts_total",
			Help: "Total number of bearer-token authentication attempts.",
		},
		[]string{"service", "method", "result"},
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of webhook deliveries received.",
		},
		[]string{"service", "event_type", "result"},
	)

	UplinksSimulatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplinks_simulated_total",
			Help: "Total number of simulated uplink submissions.",
		},
		[]string{"service", "result"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	AuthenticationAttemptsTotal = AuthenticationAttemptsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	WebhookDeliveriesTotal = WebhookDeliveriesTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	UplinksSimulatedTotal = UplinksSimulatedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthenticationAttemptsTotal,
		WebhookDeliveriesTotal,
		UplinksSimulatedTotal,
	)
}
