package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
)

// LoggerName はチェッカーのログに付く名前
const LoggerName = "consistency-checker"

// ConsistencyVerifier は座席マップと予約ストアを突き合わせる
type ConsistencyVerifier interface {
	VerifyConsistency(ctx context.Context) ([]application.Discrepancy, error)
}

// ConsistencyChecker は一定間隔で整合性を検査するワーカー
type ConsistencyChecker struct {
	verifier ConsistencyVerifier
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewConsistencyChecker は新しいチェッカーを作成
func NewConsistencyChecker(v ConsistencyVerifier, interval time.Duration) *ConsistencyChecker {
	return &ConsistencyChecker{
		verifier: v,
		interval: interval,
		log:      logger.Named(LoggerName),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はチェッカーを開始する。Stop されるか ctx が終了するまで戻らない
func (c *ConsistencyChecker) Start(ctx context.Context) {
	c.log.Info("整合性チェッカー開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("整合性チェッカー停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			c.log.Info("整合性チェッカー停止（シグナル受信）")
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

// Stop はチェッカーを停止し、ループの終了を待つ
func (c *ConsistencyChecker) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

// check は1回分の検査を行い、結果をログに残す
func (c *ConsistencyChecker) check(ctx context.Context) int {
	found, err := c.verifier.VerifyConsistency(ctx)
	if err != nil {
		c.log.Error("整合性チェック失敗", zap.Error(err))
		return 0
	}
	if len(found) == 0 {
		c.log.Debug("座席マップと予約ストアは一致しています")
		return 0
	}

	for _, d := range found {
		c.log.Error("座席マップと予約ストアの不整合", zap.Stringer("discrepancy", d))
	}
	return len(found)
}
