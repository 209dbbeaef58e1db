package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/bootstrap"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-seat-booking/internal/server"
	"github.com/sanosuguru/go-flight-seat-booking/internal/worker"
)

func main() {
	// .env は任意
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Log.Env, cfg.Log.Level)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("サーバーが異常終了しました", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.Init()
	eng, err := bootstrap.Open(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eng.Close(closeCtx); err != nil {
			logger.Error("ストアのクローズに失敗", zap.Error(err))
		}
	}()

	if interval := cfg.Worker.ConsistencyCheckInterval; interval > 0 {
		checker := worker.NewConsistencyChecker(eng.Service, interval)
		go checker.Start(ctx)
		defer checker.Stop()
	}

	e := server.New(server.Options{
		Service:      eng.Service,
		HealthChecks: eng.HealthChecks(),
		Metrics:      m,
		MetricsAuth:  cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("サーバーをシャットダウンしています...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}
	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}
