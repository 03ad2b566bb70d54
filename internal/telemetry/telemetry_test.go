package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/parity-stake/internal/config"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(stakeOperationsCounter.WithLabelValues("stake", "success"))
	RecordStakeOperation("stake", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(stakeOperationsCounter.WithLabelValues("stake", "success")))

	RecordBlock(1234)
	assert.Equal(t, float64(1234), testutil.ToFloat64(latestBlockGauge))

	beforeWS := testutil.ToFloat64(activeWebsocketGauge)
	RecordWebsocketConnection(1)
	RecordWebsocketConnection(-1)
	assert.Equal(t, beforeWS, testutil.ToFloat64(activeWebsocketGauge))

	beforeErr := testutil.ToFloat64(errorCounter.WithLabelValues("read_stake", "dashboard"))
	RecordError("read_stake", "dashboard")
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(errorCounter.WithLabelValues("read_stake", "dashboard")))
}

func TestMetricsMiddleware_RouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.HandleFunc("/api/v1/{action}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/metrics", MetricsHandler())

	labels := []string{http.MethodPost, "/api/v1/{action}", "202"}
	before := testutil.ToFloat64(requestCounter.WithLabelValues(labels...))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/claim", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(requestCounter.WithLabelValues(labels...)))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stake_operations_total") ||
		strings.Contains(rec.Body.String(), "http_request_count_total"))
}
