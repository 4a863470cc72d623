package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/splitfit/internal/middleware"
	"github.com/2beens/splitfit/internal/telemetry/metrics"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager, registry := metrics.NewTestManagerAndRegistry()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req, err := http.NewRequest("GET", "/workouts", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	middleware.RequestMetrics(metricsManager)(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var requestCounter *dto.MetricFamily
	for _, mf := range metricFamilies {
		if mf.GetName() == "backend_test_server_request" {
			requestCounter = mf
		}
	}
	require.NotNil(t, requestCounter)
	require.Len(t, requestCounter.GetMetric(), 1)

	metric := requestCounter.GetMetric()[0]
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())

	labels := map[string]string{}
	for _, labelPair := range metric.GetLabel() {
		labels[labelPair.GetName()] = labelPair.GetValue()
	}
	assert.Equal(t, "GET", labels["method"])
	assert.Equal(t, "204", labels["status"])
}
