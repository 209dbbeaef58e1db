package seat

import (
	"errors"
	"fmt"
)

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound        = errors.New("座席が見つかりません")
	ErrSeatNotBookable     = errors.New("座席は予約できません")
	ErrSeatAlreadyReserved = errors.New("座席は既に予約されています")
	ErrSeatNotReserved     = errors.New("座席は予約されていません")
	ErrIndexOutOfRange     = errors.New("スロット番号が範囲外です")
)

// notBookableError は通路と物置で異なるメッセージを返す（種別は同じ ErrSeatNotBookable）
func notBookableError(s *Slot) error {
	switch s.Kind {
	case KindAisle:
		return fmt.Errorf("%w: 座席 %s は通路エリアです", ErrSeatNotBookable, s.Code)
	case KindStorage:
		return fmt.Errorf("%w: 座席 %s は物置エリアです", ErrSeatNotBookable, s.Code)
	default:
		return ErrSeatNotBookable
	}
}
