package seat

import (
	"fmt"
	"iter"
)

// 座席マップの形状（互換性のため固定）
const (
	SeatsPerSection = 80
	TotalSlots      = 560

	AisleCode   = "X"
	StorageCode = "S"

	aisleStart = 240
	aisleEnd   = 320
)

// Sections はセクション文字の論理順
var Sections = []string{"A", "B", "C", "X", "D", "E", "F"}

// StorageIndexes は物置スロットの絶対位置（77D, 78D, 77E, 78E, 77F, 78F）
var StorageIndexes = []int{396, 397, 476, 477, 556, 557}

// Map は1便分の座席マップ
// 形状は NewMap で固定され、変化するのは予約可能スロットの状態のみ
type Map struct {
	slots []Slot
	index map[string]int
}

// NewMap は 560 スロットの座席マップを構築する
func NewMap() *Map {
	m := &Map{
		slots: make([]Slot, 0, TotalSlots),
		index: make(map[string]int, TotalSlots),
	}
	for _, section := range Sections {
		for num := 1; num <= SeatsPerSection; num++ {
			code := fmt.Sprintf("%d%s", num, section)
			m.index[code] = len(m.slots)
			m.slots = append(m.slots, Slot{
				Index:  len(m.slots),
				Code:   code,
				Kind:   KindBookable,
				Status: Free(),
			})
		}
	}
	for i := aisleStart; i < aisleEnd; i++ {
		m.slots[i].Kind = KindAisle
		m.slots[i].Status = NotApplicable()
	}
	for _, i := range StorageIndexes {
		m.slots[i].Kind = KindStorage
		m.slots[i].Status = NotApplicable()
	}
	return m
}

// Len はスロット数を返す
func (m *Map) Len() int {
	return len(m.slots)
}

// Slot は指定位置のスロットのコピーを返す
func (m *Map) Slot(i int) (Slot, error) {
	if i < 0 || i >= len(m.slots) {
		return Slot{}, ErrIndexOutOfRange
	}
	return m.slots[i], nil
}

// Lookup は座席コードからスロット位置を解決する
// 共有コード "X" / "S" は個別スロットを指さないため解決できない
func (m *Map) Lookup(code string) (int, error) {
	i, ok := m.index[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSeatNotFound, code)
	}
	return i, nil
}

// CheckReservable は Reserve が成功するかを状態を変えずに確認する
func (m *Map) CheckReservable(i int) error {
	if i < 0 || i >= len(m.slots) {
		return ErrIndexOutOfRange
	}
	s := &m.slots[i]
	if s.Kind != KindBookable {
		return notBookableError(s)
	}
	if s.Status.IsReserved() {
		return fmt.Errorf("%w: %s", ErrSeatAlreadyReserved, s.Code)
	}
	return nil
}

// Reserve は空席を予約状態にする
func (m *Map) Reserve(i int, reference string) error {
	if i < 0 || i >= len(m.slots) {
		return ErrIndexOutOfRange
	}
	return m.slots[i].reserve(reference)
}

// Release は予約済みの座席を空席に戻す
func (m *Map) Release(i int) error {
	if i < 0 || i >= len(m.slots) {
		return ErrIndexOutOfRange
	}
	return m.slots[i].release()
}

// Available は空席の座席コードをスロット順に返す
// 何度でも反復でき、副作用はない
func (m *Map) Available() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range m.slots {
			if !m.slots[i].IsAvailable() {
				continue
			}
			if !yield(m.slots[i].Code) {
				return
			}
		}
	}
}

// AvailableCount は空席数を返す
func (m *Map) AvailableCount() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].IsAvailable() {
			n++
		}
	}
	return n
}

// Reservations は予約済みスロットを位置順に返す
func (m *Map) Reservations() iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		for i := range m.slots {
			if !m.slots[i].Status.IsReserved() {
				continue
			}
			if !yield(m.slots[i]) {
				return
			}
		}
	}
}

// CountByKind は種別ごとのスロット数を返す
func (m *Map) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for i := range m.slots {
		counts[m.slots[i].Kind]++
	}
	return counts
}
