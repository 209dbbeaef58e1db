package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/metrics"
)

// MaxReferenceAttempts は参照番号の衝突時に試す連番の最大数
const MaxReferenceAttempts = 5

var ErrSeatBusy = errors.New("座席が他のセッションで処理中です")

// BookingService は座席マップと予約ストアを常に一致させたまま予約・解放を行う
// 変更操作は mu で直列化し、検証 → ストア更新 → マップ更新 の順で行う
type BookingService struct {
	mu sync.Mutex

	txManager   transaction.Manager
	repo        booking.Repository
	seats       *seat.Map
	allocator   booking.ReferenceAllocator
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.SearchCacheInterface
	metrics     *metrics.Metrics
}

// NewBookingService は BookingService を作成する
// lockManager / cache / m は nil でもよい
func NewBookingService(
	txm transaction.Manager,
	repo booking.Repository,
	seats *seat.Map,
	allocator booking.ReferenceAllocator,
	lockManager redisinfra.LockManagerInterface,
	cache redisinfra.SearchCacheInterface,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		txManager:   txm,
		repo:        repo,
		seats:       seats,
		allocator:   allocator,
		lockManager: lockManager,
		cache:       cache,
		metrics:     m,
	}
}

type BookSeatInput struct {
	SeatCode  string
	Passport  string
	FirstName string
	LastName  string
}

// CheckAvailability は空席の座席コードをスロット順に返す
func (s *BookingService) CheckAvailability(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(s.seats.Available())
}

// FormatAvailability は空席一覧の表示用テキストを返す
func FormatAvailability(codes []string) string {
	if len(codes) == 0 {
		return "空席はありません"
	}
	return "空席: " + strings.Join(codes, ", ")
}

// ShowStatus は座席マップ全体の表示用テキストを返す
func (s *BookingService) ShowStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats.Render()
}

// GetSeat は座席コードのスロットを返す
func (s *BookingService) GetSeat(code string) (seat.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.seats.Lookup(strings.TrimSpace(code))
	if err != nil {
		return seat.Slot{}, err
	}
	return s.seats.Slot(i)
}

// CheckBookable は状態を変えずに座席が予約可能かを確認する
// 乗客情報を尋ねる前の事前確認に使う
func (s *BookingService) CheckBookable(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.seats.Lookup(strings.TrimSpace(code))
	if err != nil {
		return err
	}
	return s.seats.CheckReservable(i)
}

// BookSeat は座席を予約し、作成した予約を返す
func (s *BookingService) BookSeat(ctx context.Context, in BookSeatInput) (*booking.Booking, error) {
	b, err := s.bookSeat(ctx, in)
	s.observe("book", err)
	return b, err
}

func (s *BookingService) bookSeat(ctx context.Context, in BookSeatInput) (*booking.Booking, error) {
	code := strings.TrimSpace(in.SeatCode)
	p := booking.NewPassenger(in.Passport, in.FirstName, in.LastName)

	unlock, err := s.lockSeat(ctx, code)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.seats.Lookup(code)
	if err != nil {
		return nil, err
	}
	if err := s.seats.CheckReservable(idx); err != nil {
		logger.Warn("座席予約を拒否", zap.String("seat", code), zap.Error(err))
		return nil, err
	}
	// 乗客情報は座席を確認した後に検証する
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n, err := s.repo.CountByPassport(ctx, p.Passport)
	if err != nil {
		return nil, fmt.Errorf("予約数の取得に失敗: %w", err)
	}

	b, err := s.insertWithRetry(ctx, p, code, n)
	if err != nil {
		return nil, err
	}

	if err := s.seats.Reserve(idx, b.Reference); err != nil {
		// ストアだけに残った予約を取り消す
		if delErr := s.deleteBooking(ctx, b.Reference); delErr != nil {
			logger.Error("予約の取り消しに失敗", zap.String("reference", b.Reference), zap.Error(delErr))
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}

	s.invalidateSearch(ctx, p.Passport, b.Reference)
	s.refreshGaugesLocked()
	logger.Info("座席を予約しました",
		zap.String("seat", code),
		zap.String("reference", b.Reference),
		zap.String("passport", p.Passport),
	)
	return b, nil
}

// insertWithRetry は参照番号が衝突した場合に次の連番で再試行する
func (s *BookingService) insertWithRetry(ctx context.Context, p booking.Passenger, code string, sequence int) (*booking.Booking, error) {
	for attempt := 0; attempt < MaxReferenceAttempts; attempt++ {
		b := booking.NewBooking(s.allocator.Allocate(p, sequence+attempt), p, code)
		err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
			return s.repo.Insert(ctx, tx, b)
		})
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, booking.ErrDuplicateReference):
			logger.Warn("参照番号が衝突したため再試行します",
				zap.String("reference", b.Reference),
				zap.Int("sequence", sequence+attempt),
			)
			if s.metrics != nil {
				s.metrics.ReferenceRetriesTotal.Inc()
			}
		case errors.Is(err, booking.ErrSeatTaken):
			return nil, fmt.Errorf("%w: %s", seat.ErrSeatAlreadyReserved, code)
		default:
			return nil, fmt.Errorf("予約の保存に失敗: %w", err)
		}
	}
	return nil, fmt.Errorf("参照番号を割り当てられません: %w", booking.ErrDuplicateReference)
}

// FreeSeat は予約済みの座席を解放する
// ストアの削除に失敗した場合、座席は予約済みのまま残る
func (s *BookingService) FreeSeat(ctx context.Context, code string) error {
	err := s.freeSeat(ctx, strings.TrimSpace(code))
	s.observe("free", err)
	return err
}

func (s *BookingService) freeSeat(ctx context.Context, code string) error {
	unlock, err := s.lockSeat(ctx, code)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.seats.Lookup(code)
	if err != nil {
		return err
	}
	slot, err := s.seats.Slot(idx)
	if err != nil {
		return err
	}
	if !slot.Status.IsReserved() {
		return fmt.Errorf("%w: %s", seat.ErrSeatNotReserved, code)
	}
	reference := slot.Status.Reference

	b, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("予約の取得に失敗: %w", err)
	}
	if err := s.deleteBooking(ctx, reference); err != nil {
		return fmt.Errorf("予約の削除に失敗: %w", err)
	}
	if err := s.seats.Release(idx); err != nil {
		return err
	}

	s.invalidateSearch(ctx, b.Passenger.Passport, reference)
	s.refreshGaugesLocked()
	logger.Info("座席を解放しました", zap.String("seat", code), zap.String("reference", reference))
	return nil
}

func (s *BookingService) deleteBooking(ctx context.Context, reference string) error {
	return transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.repo.DeleteByReference(ctx, tx, reference)
	})
}

// SearchBooking は参照番号またはパスポート番号で予約を検索する
// キャッシュの読み書きも mu の中で行い、予約・解放による無効化と交差させない
func (s *BookingService) SearchBooking(ctx context.Context, term string) (*booking.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, booking.ErrBookingNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, term)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("term", term))
			return cached, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	result, err := s.repo.FindByReferenceOrPassport(ctx, term)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, term, result); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return result, nil
}

// lockSeat は分散ロックを取得し、解放関数を返す
// 競合以外の Redis 障害時はロックなしで続行する
func (s *BookingService) lockSeat(ctx context.Context, code string) (func(), error) {
	if s.lockManager == nil {
		return func() {}, nil
	}

	start := time.Now()
	lock, err := s.lockManager.LockSeat(ctx, code)
	if err != nil {
		s.observeLock("acquire", err, start)
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %s", ErrSeatBusy, code)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("分散ロックを取得できないためロックなしで続行します", zap.String("seat", code), zap.Error(err))
		return func() {}, nil
	}
	s.observeLock("acquire", nil, start)

	return func() {
		start := time.Now()
		err := lock.Release(ctx)
		s.observeLock("release", err, start)
		if err != nil {
			logger.Warn("ロック解放エラー", zap.String("key", lock.Key()), zap.Error(err))
		}
	}, nil
}

// ClearSearchCache は検索キャッシュをすべて破棄する
func (s *BookingService) ClearSearchCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

// resetSearchCacheLocked はストアの内容が入れ替わる時に検索キャッシュを破棄する
// 破棄できない場合は古い結果を返さないようキャッシュを使わない
func (s *BookingService) resetSearchCacheLocked(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		logger.Warn("検索キャッシュを破棄できないためキャッシュを無効にします", zap.Error(err))
		s.cache = nil
	}
}

func (s *BookingService) invalidateSearch(ctx context.Context, terms ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, terms...); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Error(err))
	}
}

func (s *BookingService) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.SeatOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func (s *BookingService) observeLock(operation string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// resultLabel はエラーをメトリクスの結果ラベルに変換する
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, seat.ErrSeatNotFound), errors.Is(err, booking.ErrBookingNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, seat.ErrSeatNotBookable):
		return metrics.ResultNotBookable
	case errors.Is(err, seat.ErrSeatAlreadyReserved), errors.Is(err, seat.ErrSeatNotReserved),
		errors.Is(err, booking.ErrDuplicateReference):
		return metrics.ResultConflict
	case errors.Is(err, booking.ErrPassportRequired), errors.Is(err, booking.ErrFirstNameRequired),
		errors.Is(err, booking.ErrLastNameRequired):
		return metrics.ResultInvalid
	case errors.Is(err, ErrSeatBusy):
		return metrics.ResultLockFailed
	default:
		return metrics.ResultError
	}
}
