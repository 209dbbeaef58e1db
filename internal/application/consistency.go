package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
)

// Discrepancy は座席マップと予約ストアの食い違い1件
// MapReference / StoreReference の片方が空なら、もう片方にしか存在しない
type Discrepancy struct {
	SeatCode       string
	MapReference   string
	StoreReference string
}

func (d Discrepancy) String() string {
	switch {
	case d.StoreReference == "":
		return fmt.Sprintf("座席 %s: マップのみ予約済み (%s)", d.SeatCode, d.MapReference)
	case d.MapReference == "":
		return fmt.Sprintf("座席 %s: ストアのみ予約あり (%s)", d.SeatCode, d.StoreReference)
	default:
		return fmt.Sprintf("座席 %s: 参照番号不一致 (マップ %s / ストア %s)", d.SeatCode, d.MapReference, d.StoreReference)
	}
}

// RestoreResult は起動時の復元結果
type RestoreResult struct {
	Applied int
	// Rejected は適用できなかった予約の参照番号
	Rejected []string
}

// Restore は保存済みの予約を座席マップへ反映する
// 存在しない座席や予約不可の座席を指す予約は適用せずに報告する
func (s *BookingService) Restore(ctx context.Context) (*RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗: %w", err)
	}
	s.resetSearchCacheLocked(ctx)

	result := &RestoreResult{}
	for _, b := range all {
		idx, err := s.seats.Lookup(b.SeatCode)
		if err == nil {
			err = s.seats.Reserve(idx, b.Reference)
		}
		if err != nil {
			logger.Warn("予約を座席マップに復元できません",
				zap.String("reference", b.Reference),
				zap.String("seat", b.SeatCode),
				zap.Error(err),
			)
			result.Rejected = append(result.Rejected, b.Reference)
			continue
		}
		result.Applied++
	}

	s.refreshGaugesLocked()
	logger.Info("予約を復元しました", zap.Int("applied", result.Applied), zap.Int("rejected", len(result.Rejected)))
	return result, nil
}

// VerifyConsistency は予約済みスロットとストアの予約を突き合わせ、食い違いをすべて返す
func (s *BookingService) VerifyConsistency(ctx context.Context) ([]Discrepancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗: %w", err)
	}
	stored := make(map[string]string, len(all))
	for _, b := range all {
		stored[b.SeatCode] = b.Reference
	}

	var found []Discrepancy
	for slot := range s.seats.Reservations() {
		ref, ok := stored[slot.Code]
		delete(stored, slot.Code)
		if ok && ref == slot.Status.Reference {
			continue
		}
		found = append(found, Discrepancy{SeatCode: slot.Code, MapReference: slot.Status.Reference, StoreReference: ref})
	}
	for _, b := range all {
		if ref, ok := stored[b.SeatCode]; ok {
			found = append(found, Discrepancy{SeatCode: b.SeatCode, StoreReference: ref})
		}
	}

	if s.metrics != nil {
		s.metrics.ConsistencyViolations.Set(float64(len(found)))
	}
	s.refreshGaugesLocked()
	return found, nil
}

func (s *BookingService) refreshGaugesLocked() {
	if s.metrics == nil {
		return
	}
	reserved := 0
	for range s.seats.Reservations() {
		reserved++
	}
	s.metrics.ActiveBookings.Set(float64(reserved))
	s.metrics.AvailableSeats.Set(float64(s.seats.AvailableCount()))
}
