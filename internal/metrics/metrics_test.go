package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

func TestObserveGateway(t *testing.T) {
	before := testutil.ToFloat64(GatewayRequests.WithLabelValues("create_charge", "ok"))

	StartTimer().ObserveGateway("create_charge", "ok")

	after := testutil.ToFloat64(GatewayRequests.WithLabelValues("create_charge", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordWebhook(t *testing.T) {
	before := testutil.ToFloat64(WebhookVerifications.WithLabelValues("invalid_webhook_token"))

	RecordWebhook("invalid_webhook_token")

	assert.Equal(t, before+1, testutil.ToFloat64(WebhookVerifications.WithLabelValues("invalid_webhook_token")))
}

func TestHandler(t *testing.T) {
	RecordWebhook("ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vpos_webhook_verifications_total")
}
