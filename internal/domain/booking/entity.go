package booking

import (
	"strings"
	"time"
)

// Passenger は乗客の識別情報を表す（独立したエンティティとしては保存しない）
type Passenger struct {
	Passport  string
	FirstName string
	LastName  string
}

// NewPassenger は前後の空白を除去した乗客情報を作成する
func NewPassenger(passport, firstName, lastName string) Passenger {
	return Passenger{
		Passport:  strings.TrimSpace(passport),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
}

// FullName は "名 姓" 形式の氏名を返す
func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Validate は乗客情報の検証を行う
func (p Passenger) Validate() error {
	if p.Passport == "" {
		return ErrPassportRequired
	}
	if p.FirstName == "" {
		return ErrFirstNameRequired
	}
	if p.LastName == "" {
		return ErrLastNameRequired
	}
	return nil
}

// Booking は有効な予約レコードを表す
// 作成と削除のみで、更新はしない
type Booking struct {
	Reference string
	Passenger Passenger
	SeatCode  string
	BookedAt  time.Time
}

// NewBooking は新しい予約レコードを作成する
func NewBooking(reference string, p Passenger, seatCode string) *Booking {
	return &Booking{
		Reference: reference,
		Passenger: p,
		SeatCode:  seatCode,
		BookedAt:  time.Now(),
	}
}

// SearchResult は参照番号またはパスポート番号による検索結果
type SearchResult struct {
	PassengerName string
	SeatCodes     []string
}
