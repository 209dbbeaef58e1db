package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約操作の結果ラベル
const (
	ResultSuccess     = "success"
	ResultConflict    = "conflict"
	ResultNotFound    = "not_found"
	ResultNotBookable = "not_bookable"
	ResultInvalid     = "invalid"
	ResultLockFailed  = "lock_failed"
	ResultError       = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席操作の総数（operation: book/free, result）
	SeatOperationsTotal *prometheus.CounterVec

	// 参照番号の衝突による再試行回数
	ReferenceRetriesTotal prometheus.Counter

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 有効な予約数
	ActiveBookings prometheus.Gauge

	// 空席数
	AvailableSeats prometheus.Gauge

	// 座席マップとストアの不整合件数（最後の検査結果）
	ConsistencyViolations prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SeatOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_operations_total",
				Help: "Total number of seat book/free attempts",
			},
			[]string{"operation", "result"},
		),
		ReferenceRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "booking_reference_retries_total",
				Help: "Booking reference collisions resolved by retrying with the next sequence index",
			},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ActiveBookings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_bookings",
				Help: "Current number of active bookings",
			},
		),
		AvailableSeats: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "available_seats",
				Help: "Current number of free bookable seats",
			},
		),
		ConsistencyViolations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "seat_store_consistency_violations",
				Help: "Divergences between the seat map and the booking store found by the last check",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SeatOperationsTotal,
		m.ReferenceRetriesTotal,
		m.DistributedLockDuration,
		m.ActiveBookings,
		m.AvailableSeats,
		m.ConsistencyViolations,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
