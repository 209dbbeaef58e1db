package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 座席ロックの既定値
const (
	DefaultSeatLockTTL     = 5 * time.Second
	DefaultSeatLockRetries = 10
	DefaultSeatLockBackoff = 50 * time.Millisecond
)

// 所有者を確認してから削除する
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock は取得済みのロック
type Lock interface {
	Key() string
	Release(ctx context.Context) error
}

// LockManagerInterface は座席ロックの発行元
type LockManagerInterface interface {
	LockSeat(ctx context.Context, seatCode string) (Lock, error)
}

// SeatLock は1座席に対する分散ロック
// value は取得したプロセスを識別するトークン
type SeatLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager は座席単位の分散ロックを発行する
// 複数プロセスが同じストアを共有するときの book/free の直列化に使う
type LockManager struct {
	client  *redis.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{
		client:  client,
		ttl:     DefaultSeatLockTTL,
		retries: DefaultSeatLockRetries,
		backoff: DefaultSeatLockBackoff,
	}
}

// SeatLockKey は座席コードに対応するロックキーを返す
func SeatLockKey(seatCode string) string {
	return "lock:seat:" + seatCode
}

// TryLockSeat は待たずに座席ロックの取得を1回だけ試みる
func (m *LockManager) TryLockSeat(ctx context.Context, seatCode string) (Lock, error) {
	key := SeatLockKey(seatCode)
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &SeatLock{client: m.client, key: key, value: token}, nil
}

// LockSeat は座席ロックを取得するまで一定間隔で再試行する
func (m *LockManager) LockSeat(ctx context.Context, seatCode string) (Lock, error) {
	var lastErr error
	for attempt := 0; attempt < m.retries; attempt++ {
		lock, err := m.TryLockSeat(ctx, seatCode)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		lastErr = err

		timer := time.NewTimer(m.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// Key はロックキーを返す
func (l *SeatLock) Key() string { return l.key }

// Release はロックを解放する
// TTL 切れで他プロセスに渡ったロックは削除しない
func (l *SeatLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if deleted == 0 {
		return ErrLockNotOwned
	}
	return nil
}

var (
	_ Lock                 = (*SeatLock)(nil)
	_ LockManagerInterface = (*LockManager)(nil)
)
