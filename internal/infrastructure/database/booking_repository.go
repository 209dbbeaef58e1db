package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/transaction"
)

const (
	pqUniqueViolation    = "23505"
	pqSeatCodeConstraint = "bookings_seat_code_key"
	sqliteSeatCodeColumn = "bookings.seat_code"
)

type bookingRow struct {
	Reference string    `db:"reference"`
	Passport  string    `db:"passport"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	SeatCode  string    `db:"seat_code"`
	BookedAt  time.Time `db:"booked_at"`
}

// BookingRepository は sqlx による予約ストアの実装
// クエリは ? プレースホルダで書き、ドライバーごとに Rebind する
type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Insert(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`INSERT INTO bookings (reference, passport, first_name, last_name, seat_code, booked_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM bookings))`)
	_, err = sqlTx.ExecContext(ctx, query,
		b.Reference, b.Passenger.Passport, b.Passenger.FirstName, b.Passenger.LastName, b.SeatCode, b.BookedAt.UTC())
	if err != nil {
		if classified := classifyConstraintError(err); classified != nil {
			return classified
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) DeleteByReference(ctx context.Context, tx transaction.Tx, reference string) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, sqlTx.Rebind(`DELETE FROM bookings WHERE reference = ?`), reference)
	if err != nil {
		return fmt.Errorf("予約削除に失敗: %w", err)
	}
	return checkDeleted(result)
}

// checkDeleted は削除件数が取れない場合と0件の場合を区別して返す
func checkDeleted(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var row bookingRow
	query := r.db.Rebind(`SELECT reference, passport, first_name, last_name, seat_code, booked_at FROM bookings WHERE reference = ?`)
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return toEntity(&row), nil
}

// FindByReferenceOrPassport は参照番号またはパスポート番号に一致する予約をまとめて返す
// 氏名は最初に登録された予約のものを使う
func (r *BookingRepository) FindByReferenceOrPassport(ctx context.Context, term string) (*booking.SearchResult, error) {
	var rows []bookingRow
	query := r.db.Rebind(`SELECT reference, passport, first_name, last_name, seat_code, booked_at
		FROM bookings WHERE reference = ? OR passport = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &rows, query, term, term); err != nil {
		return nil, fmt.Errorf("予約検索に失敗: %w", err)
	}
	if len(rows) == 0 {
		return nil, booking.ErrBookingNotFound
	}
	result := &booking.SearchResult{
		PassengerName: booking.NewPassenger(rows[0].Passport, rows[0].FirstName, rows[0].LastName).FullName(),
		SeatCodes:     make([]string, len(rows)),
	}
	for i, row := range rows {
		result.SeatCodes[i] = row.SeatCode
	}
	return result, nil
}

func (r *BookingRepository) CountByPassport(ctx context.Context, passport string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM bookings WHERE passport = ?`), passport); err != nil {
		return 0, fmt.Errorf("予約数取得に失敗: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*booking.Booking, error) {
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT reference, passport, first_name, last_name, seat_code, booked_at FROM bookings ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = toEntity(&rows[i])
	}
	return result, nil
}

func (r *BookingRepository) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings`); err != nil {
		return fmt.Errorf("予約の全削除に失敗: %w", err)
	}
	return nil
}

func toEntity(row *bookingRow) *booking.Booking {
	return &booking.Booking{
		Reference: row.Reference,
		Passenger: booking.Passenger{Passport: row.Passport, FirstName: row.FirstName, LastName: row.LastName},
		SeatCode:  row.SeatCode,
		BookedAt:  row.BookedAt,
	}
}

// classifyConstraintError は一意制約違反を座席重複と参照番号重複に振り分ける
// 該当しない場合は nil
func classifyConstraintError(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == pqUniqueViolation {
		if pgErr.Constraint == pqSeatCodeConstraint {
			return booking.ErrSeatTaken
		}
		return booking.ErrDuplicateReference
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		if strings.Contains(liteErr.Error(), sqliteSeatCodeColumn) {
			return booking.ErrSeatTaken
		}
		return booking.ErrDuplicateReference
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
