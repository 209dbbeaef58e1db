package booking

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/transaction"
)

// Repository は予約ストアのインターフェース
type Repository interface {
	// Insert は予約を保存する（トランザクション必須）
	// 参照番号が重複する場合は ErrDuplicateReference、座席が使用中の場合は ErrSeatTaken
	Insert(ctx context.Context, tx transaction.Tx, b *Booking) error
	// DeleteByReference は参照番号の予約を削除する（トランザクション必須）
	DeleteByReference(ctx context.Context, tx transaction.Tx, reference string) error
	// GetByReference は参照番号の予約を返す。無い場合は ErrBookingNotFound
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	// FindByReferenceOrPassport は参照番号またはパスポート番号に一致する予約を検索する
	FindByReferenceOrPassport(ctx context.Context, term string) (*SearchResult, error)
	// CountByPassport はパスポート番号の有効な予約数を返す
	CountByPassport(ctx context.Context, passport string) (int, error)
	// List は全予約を登録順に返す
	List(ctx context.Context) ([]*Booking, error)
	// Purge は全予約を削除する
	Purge(ctx context.Context) error
}
