package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
)

var ErrUnsupportedDriver = errors.New("未対応のストアドライバーです")

func init() {
	// modernc の "sqlite" は sqlx の既定バインド表に無いため登録する
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// NewConnection は設定されたドライバーで予約ストアへの接続を作成する
func NewConnection(cfg *config.StoreConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sqlx.Connect(config.DriverPostgres, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
		}
		// 接続プール設定
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		return db, nil
	case config.DriverSQLite:
		db, err := sqlx.Connect(config.DriverSQLite, cfg.SQLiteDSN())
		if err != nil {
			return nil, fmt.Errorf("SQLiteファイルを開けませんでした: %w", err)
		}
		// SQLite の書き込みは直列化されるため小さなプールにする
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Ping はデータベース接続を確認する
func Ping(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}
