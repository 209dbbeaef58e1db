package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-seat-booking/internal/bootstrap"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-seat-booking/internal/server"
)

// TestServer はE2Eテスト用のサーバー
// SQLite ファイルを使うため外部サービスは不要
type TestServer struct {
	Echo     *echo.Echo
	Engine   *bootstrap.Engine
	Registry *prometheus.Registry

	cfg *config.Config
	t   *testing.T
}

// NewTestServer はテスト用サーバーを作成
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "e2e.db"),
		},
	}
	s := &TestServer{cfg: cfg, t: t}
	s.start()
	t.Cleanup(func() {
		if s.Engine != nil {
			s.Engine.Close(context.Background())
		}
	})
	return s
}

func (s *TestServer) start() {
	s.t.Helper()
	s.Registry = prometheus.NewRegistry()
	m := metrics.NewWithRegistry(s.Registry)

	eng, err := bootstrap.Open(context.Background(), s.cfg, m)
	require.NoError(s.t, err)
	s.Engine = eng
	s.Echo = server.New(server.Options{
		Service:      eng.Service,
		HealthChecks: eng.HealthChecks(),
		Metrics:      m,
		Gatherer:     s.Registry,
	})
}

// Restart はストアを閉じて開き直し、新しいプロセスの起動を再現する
func (s *TestServer) Restart() {
	s.t.Helper()
	require.NoError(s.t, s.Engine.Close(context.Background()))
	s.Engine = nil
	s.start()
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
