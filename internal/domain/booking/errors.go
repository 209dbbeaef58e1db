package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound    = errors.New("予約が見つかりません")
	ErrDuplicateReference = errors.New("同じ参照番号の予約が既に存在します")
	ErrSeatTaken          = errors.New("座席には既に有効な予約があります")
	ErrPassportRequired   = errors.New("パスポート番号は必須です")
	ErrFirstNameRequired  = errors.New("名は必須です")
	ErrLastNameRequired   = errors.New("姓は必須です")
)
