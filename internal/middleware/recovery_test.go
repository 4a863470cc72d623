package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/splitfit/internal/middleware"
	"github.com/2beens/splitfit/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecovery(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	panickyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	})

	req, err := http.NewRequest("GET", "/panic", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() {
		middleware.PanicRecovery(metricsManager)(panickyHandler).ServeHTTP(rec, req)
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterHandleRequestPanic))
}
