package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-flight-seat-booking/internal/api"
	"github.com/sanosuguru/go-flight-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-flight-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
)

// Options は HTTP サーバーの組み立てに必要な依存
type Options struct {
	Service      handler.BookingServiceInterface
	HealthChecks map[string]handler.CheckFunc

	// Metrics が nil の場合は /metrics を公開しない
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	MetricsAuth config.MetricsConfig
}

// New はミドルウェアとルートを設定した Echo インスタンスを返す
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.Metrics)
	handler.RegisterRoutes(e, opts.Service, handler.NewHealthHandler(opts.HealthChecks))

	if opts.Metrics != nil {
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics",
			echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
			middleware.MetricsBasicAuth(opts.MetricsAuth),
		)
	}
	return e
}
