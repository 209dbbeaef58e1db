package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
)

// quitBooking は座席入力ループを抜ける入力
const quitBooking = "-1"

// Engine はメニューが使う予約操作
type Engine interface {
	CheckAvailability(ctx context.Context) []string
	CheckBookable(code string) error
	BookSeat(ctx context.Context, in application.BookSeatInput) (*booking.Booking, error)
	FreeSeat(ctx context.Context, code string) error
	ShowStatus() string
	SearchBooking(ctx context.Context, term string) (*booking.SearchResult, error)
}

// Menu は対話式の座席予約メニュー
type Menu struct {
	engine Engine
	in     *bufio.Scanner
	out    io.Writer
}

func NewMenu(engine Engine, in io.Reader, out io.Writer) *Menu {
	return &Menu{engine: engine, in: bufio.NewScanner(in), out: out}
}

// Run は終了が選ばれるか入力が尽きるまでメニューを繰り返す
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.printMenu()
		choice, ok := m.prompt("番号を選択してください (1-6): ")
		if !ok {
			return m.in.Err()
		}

		switch choice {
		case "1":
			m.showAvailability(ctx)
		case "2":
			if !m.bookSeats(ctx) {
				return m.in.Err()
			}
		case "3":
			if !m.freeSeat(ctx) {
				return m.in.Err()
			}
		case "4":
			m.println(m.engine.ShowStatus())
		case "5":
			if !m.searchBooking(ctx) {
				return m.in.Err()
			}
		case "6":
			m.println("終了します")
			return nil
		default:
			m.println("無効な選択です。1〜6 の番号を入力してください")
		}
	}
}

func (m *Menu) printMenu() {
	m.println("")
	m.println("--- 座席予約システム ---")
	m.println("1. 空席を確認する")
	m.println("2. 座席を予約する")
	m.println("3. 座席を解放する")
	m.println("4. 予約状況を表示する")
	m.println("5. 予約を検索する")
	m.println("6. 終了する")
}

func (m *Menu) showAvailability(ctx context.Context) {
	m.println(application.FormatAvailability(m.engine.CheckAvailability(ctx)))
}

// bookSeats は -1 が入力されるまで座席の予約を受け付ける
// 乗客情報は座席が予約可能と確認できてから尋ねる
func (m *Menu) bookSeats(ctx context.Context) bool {
	m.showAvailability(ctx)
	for {
		code, ok := m.prompt("座席番号を入力してください（" + quitBooking + " で終了）: ")
		if !ok {
			return false
		}
		if code == quitBooking {
			m.println("予約を終了します")
			break
		}
		if err := m.engine.CheckBookable(code); err != nil {
			m.println(describe(err))
			continue
		}

		var in application.BookSeatInput
		in.SeatCode = code
		if in.Passport, ok = m.prompt("パスポート番号: "); !ok {
			return false
		}
		if in.FirstName, ok = m.prompt("名: "); !ok {
			return false
		}
		if in.LastName, ok = m.prompt("姓: "); !ok {
			return false
		}

		b, err := m.engine.BookSeat(ctx, in)
		if err != nil {
			m.println(describe(err))
			continue
		}
		m.println(fmt.Sprintf("座席 %s を予約しました（参照番号 %s）", b.SeatCode, b.Reference))
	}
	m.showAvailability(ctx)
	return true
}

func (m *Menu) freeSeat(ctx context.Context) bool {
	code, ok := m.prompt("解放する座席番号を入力してください: ")
	if !ok {
		return false
	}
	if err := m.engine.FreeSeat(ctx, code); err != nil {
		m.println(describe(err))
	} else {
		m.println(fmt.Sprintf("座席 %s を解放しました", code))
	}
	m.println(m.engine.ShowStatus())
	return true
}

func (m *Menu) searchBooking(ctx context.Context) bool {
	term, ok := m.prompt("参照番号またはパスポート番号を入力してください: ")
	if !ok {
		return false
	}
	result, err := m.engine.SearchBooking(ctx, term)
	if err != nil {
		m.println(describe(err))
		return true
	}
	m.println("乗客: " + result.PassengerName)
	m.println("座席: " + strings.Join(result.SeatCodes, ", "))
	return true
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

// describe は拒否理由を利用者向けの文に変換する
func describe(err error) string {
	switch {
	case errors.Is(err, seat.ErrSeatNotFound):
		return "無効な座席番号です。一覧にある座席を入力してください"
	case errors.Is(err, booking.ErrBookingNotFound):
		return "該当する予約はありません"
	case errors.Is(err, seat.ErrSeatAlreadyReserved):
		return "その座席は既に予約されています。別の座席を選んでください"
	case errors.Is(err, seat.ErrSeatNotReserved):
		return "その座席は予約されていないため解放できません"
	default:
		return err.Error()
	}
}
