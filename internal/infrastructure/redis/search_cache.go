package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

type cachedResult struct {
	PassengerName string   `json:"passenger_name"`
	SeatCodes     []string `json:"seat_codes"`
}

// SearchCacheInterface は予約検索キャッシュの操作
type SearchCacheInterface interface {
	Get(ctx context.Context, term string) (*booking.SearchResult, error)
	Set(ctx context.Context, term string, result *booking.SearchResult) error
	Invalidate(ctx context.Context, terms ...string) error
	Clear(ctx context.Context) error
}

// SearchCache は予約検索結果のキャッシュを管理する
// キーは検索語（参照番号またはパスポート番号）
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache は新しいSearchCacheを作成する
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

// Get はキャッシュされた検索結果を返す
func (c *SearchCache) Get(ctx context.Context, term string) (*booking.SearchResult, error) {
	raw, err := c.client.Get(ctx, searchKey(term)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var v cachedResult
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("キャッシュ値が不正です: %w", err)
	}
	return &booking.SearchResult{PassengerName: v.PassengerName, SeatCodes: v.SeatCodes}, nil
}

// Set は検索結果を保存する
func (c *SearchCache) Set(ctx context.Context, term string, result *booking.SearchResult) error {
	raw, err := json.Marshal(cachedResult{PassengerName: result.PassengerName, SeatCodes: result.SeatCodes})
	if err != nil {
		return fmt.Errorf("キャッシュ値の変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, searchKey(term), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は指定した検索語のキャッシュを削除する
func (c *SearchCache) Invalidate(ctx context.Context, terms ...string) error {
	if len(terms) == 0 {
		return nil
	}
	keys := make([]string, len(terms))
	for i, term := range terms {
		keys[i] = searchKey(term)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

// Clear は検索キャッシュをすべて削除する
// ストアの内容が入れ替わったとき（起動時の復元、エフェメラルストアの破棄）に使う
func (c *SearchCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("キャッシュキーの走査に失敗: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ全削除に失敗: %w", err)
	}
	return nil
}

const searchKeyPrefix = "booking:search:"

func searchKey(term string) string {
	return searchKeyPrefix + term
}

var _ SearchCacheInterface = (*SearchCache)(nil)
