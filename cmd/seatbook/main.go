// seatbook は座席予約エンジンを対話メニューで操作するコマンド
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sanosuguru/go-flight-seat-booking/internal/bootstrap"
	"github.com/sanosuguru/go-flight-seat-booking/internal/cli"
	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
)

// 対話中のログはメニュー表示と混ざるため、既定では error 以上のみ出力する
const defaultLogLevel = "error"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := parseFlags(args, cfg, out); err != nil {
		return err
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	logger.Init(cfg.Log.Env, cfg.Log.Level)
	defer logger.Sync()

	eng, err := bootstrap.Open(context.Background(), cfg, nil)
	if err != nil {
		return err
	}
	closeEngine := sync.OnceValue(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return eng.Close(ctx)
	})

	// 入力待ちで中断された場合もストアを閉じてから終了する
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "\n中断しました")
			if err := closeEngine(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			os.Exit(130)
		case <-done:
		}
	}()

	runErr := cli.NewMenu(eng.Service, in, out).Run(context.Background())
	return errors.Join(runErr, closeEngine())
}

// parseFlags はコマンドライン引数で環境変数由来の設定を上書きする
// PostgreSQL の接続先は DATABASE_URL または DB_* で指定する
func parseFlags(args []string, cfg *config.Config, out io.Writer) error {
	fs := pflag.NewFlagSet("seatbook", pflag.ContinueOnError)
	fs.SetOutput(out)

	driver := fs.String("driver", cfg.Store.Driver, "予約ストア（sqlite | postgres）")
	sqlitePath := fs.String("sqlite-path", cfg.Store.SQLitePath, "SQLite ファイルのパス")
	ephemeral := fs.Bool("ephemeral", cfg.Store.Ephemeral, "終了時に予約をすべて破棄する")
	redisEnabled := fs.Bool("redis", cfg.Redis.Enabled, "Redis の分散ロックと検索キャッシュを使う")
	logLevel := fs.StringP("log-level", "l", cfg.Log.Level, "ログレベル（debug | info | warn | error）")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("不明な引数です: %v", fs.Args())
	}

	cfg.Store.Driver = *driver
	cfg.Store.SQLitePath = *sqlitePath
	cfg.Store.Ephemeral = *ephemeral
	cfg.Redis.Enabled = *redisEnabled
	cfg.Log.Level = *logLevel
	return nil
}
