package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/database"
	redisinfra "github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
)

// Engine は予約エンジンのセッション
// ストアを開いて座席マップを復元した状態で返し、Close でストアを閉じる
type Engine struct {
	Service *application.BookingService
	Store   *database.Store
	Redis   *redis.Client
}

// Open はストアと（有効なら）Redis に接続し、既存の予約から座席マップを復元する
// Redis に接続できない場合はロックとキャッシュなしで起動する
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	store, err := database.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("ストアを開けません: %w", err)
	}
	eng := &Engine{Store: store}

	var (
		locks redisinfra.LockManagerInterface
		cache redisinfra.SearchCacheInterface
	)
	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis に接続できないため分散ロックとキャッシュを無効にします", zap.Error(err))
		} else {
			eng.Redis = client
			locks = redisinfra.NewLockManager(client)
			cache = redisinfra.NewSearchCache(client, cfg.Redis.CacheTTL)
		}
	}

	eng.Service = application.NewBookingService(
		store.TxManager(), store.Bookings(), seat.NewMap(), booking.SHA1Allocator{}, locks, cache, m,
	)

	result, err := eng.Service.Restore(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("座席マップを復元できません: %w", err), eng.Close(ctx))
	}
	logger.Info("座席マップを復元しました",
		zap.String("driver", cfg.Store.Driver),
		zap.Int("applied", result.Applied),
		zap.Strings("rejected", result.Rejected),
	)
	return eng, nil
}

// HealthChecks はヘルスチェック対象を返す
func (e *Engine) HealthChecks() map[string]handler.CheckFunc {
	checks := map[string]handler.CheckFunc{
		"store": func(ctx context.Context) error { return database.Ping(ctx, e.Store.DB) },
	}
	if e.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, e.Redis) }
	}
	return checks
}

// Close は Redis とストアを閉じる
// エフェメラルモードのストアはここで内容が破棄され、検索キャッシュも合わせて消す
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.Store.Ephemeral() && e.Service != nil {
		if err := e.Service.ClearSearchCache(ctx); err != nil {
			errs = append(errs, fmt.Errorf("検索キャッシュの破棄に失敗: %w", err))
		}
	}
	if e.Redis != nil {
		if err := e.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("Redis のクローズに失敗: %w", err))
		}
	}
	if err := e.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
