package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpos_gateway_requests_total",
			Help: "Gateway operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vpos_gateway_request_duration_seconds",
			Help:    "Duration of gateway operations, including the network call.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	WebhookVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpos_webhook_verifications_total",
			Help: "Webhook verifications by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(GatewayRequests, GatewayDuration, WebhookVerifications)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveGateway records one finished gateway operation.
func (t *Timer) ObserveGateway(operation, outcome string) {
	GatewayDuration.WithLabelValues(operation).Observe(t.Duration().Seconds())
	GatewayRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordWebhook counts one webhook verification.
func RecordWebhook(outcome string) {
	WebhookVerifications.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
