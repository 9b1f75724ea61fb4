package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New("gradvillage_test")

	m.ObserveHTTP("GET", "/health", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.PaymentOutcome("registration", "succeeded")
	m.PaymentOutcome("registration", "succeeded")
	m.OutboxOutcome("email.welcome", "sent")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentsTotal.WithLabelValues("registration", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxDispatchTotal.WithLabelValues("email.welcome", "sent")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("gradvillage_test")
	m.PaymentOutcome("donation", "declined")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `gradvillage_test_payments_total{flow="donation",outcome="declined"} 1`)
	assert.NotNil(t, m.Registry())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.PaymentOutcome("x", "y")
	m.OutboxOutcome("x", "y")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
