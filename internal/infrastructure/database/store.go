package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
)

// Store は予約ストアの接続とライフサイクルを所有する
// 開始時に Open し、終了時に Close する
type Store struct {
	DB *sqlx.DB

	cfg      config.StoreConfig
	bookings *BookingRepository
	txm      *TxManager
}

// Open は接続を作成し、マイグレーションを適用する
func Open(cfg config.StoreConfig) (*Store, error) {
	db, err := NewConnection(&cfg)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		DB:       db,
		cfg:      cfg,
		bookings: NewBookingRepository(db),
		txm:      NewTxManager(db),
	}, nil
}

// Bookings は予約リポジトリを返す
func (s *Store) Bookings() *BookingRepository { return s.bookings }

// TxManager はトランザクションマネージャーを返す
func (s *Store) TxManager() *TxManager { return s.txm }

// Ephemeral は終了時に内容を破棄するストアかどうかを返す
func (s *Store) Ephemeral() bool { return s.cfg.Ephemeral }

// Close は接続を閉じる
// エフェメラルモードでは予約を全削除し、SQLite の場合はファイルも削除する
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.cfg.Ephemeral {
		if err := s.bookings.Purge(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ストアのクローズに失敗: %w", err))
	}
	if s.cfg.Ephemeral && s.cfg.Driver == config.DriverSQLite {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(s.cfg.SQLitePath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("SQLiteファイルの削除に失敗: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
