package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/database"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
)

func newService(t *testing.T, m *metrics.Metrics) *application.BookingService {
	t.Helper()
	store, err := database.Open(config.StoreConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "server.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return application.NewBookingService(store.TxManager(), store.Bookings(), seat.NewMap(), booking.SHA1Allocator{}, nil, nil, m)
}

func get(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	e := New(Options{
		Service:     newService(t, m),
		Metrics:     m,
		Gatherer:    reg,
		MetricsAuth: config.MetricsConfig{User: "prom", Password: "secret"},
	})

	require.Equal(t, http.StatusOK, get(t, e, "/api/v1/seats/available", nil).Code)

	t.Run("認証なしは401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(t, e, "/metrics", nil).Code)
	})

	t.Run("認証ありでメトリクスを公開する", func(t *testing.T) {
		auth := "Basic " + base64.StdEncoding.EncodeToString([]byte("prom:secret"))
		rec := get(t, e, "/metrics", map[string]string{"Authorization": auth})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/v1/seats/available",status_code="200"} 1`)
	})
}

func TestNew_WithoutMetrics(t *testing.T) {
	e := New(Options{Service: newService(t, nil)})

	assert.Equal(t, http.StatusOK, get(t, e, "/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(t, e, "/metrics", nil).Code)
}
