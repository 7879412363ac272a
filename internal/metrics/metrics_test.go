package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.ObserveTransition("pending-payment", "payment-verified")
	m.ObserveRejection("payment_gate")
	m.ObservePaymentDecision("approve")
	m.ObserveAssignment("assign")
	m.ObserveDispatch("sent")
	m.ObserveRequest("GET /healthz", http.StatusOK, time.Millisecond)
}

func TestMetricsExposition(t *testing.T) {
	m := New("testns")
	m.ObserveTransition("pending-payment", "payment-verified")
	m.ObserveDispatch("sent")
	m.ObserveRequest("POST /api/orders", http.StatusCreated, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "testns_order_transitions_total")
	assert.Contains(t, body, "testns_events_dispatched_total")
	assert.Contains(t, body, "testns_http_requests_total")
	assert.Contains(t, body, "testns_http_request_duration_ms")
}
