package seat

// Kind は座席スロットの種別を表す（マップ構築時に一度だけ決まる）
type Kind int

const (
	KindBookable Kind = iota
	KindAisle
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindBookable:
		return "bookable"
	case KindAisle:
		return "aisle"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// State は Status のタグ
type State int

const (
	StateNotApplicable State = iota
	StateFree
	StateReserved
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReserved:
		return "reserved"
	default:
		return "n/a"
	}
}

// Status は座席の状態を表す
// Free | Reserved(reference) | NotApplicable のいずれか
type Status struct {
	State     State
	Reference string // StateReserved のときのみ有効
}

// Free は空席状態を返す
func Free() Status { return Status{State: StateFree} }

// Reserved は予約参照番号付きの予約状態を返す
func Reserved(reference string) Status {
	return Status{State: StateReserved, Reference: reference}
}

// NotApplicable は予約対象外スロットの状態を返す
func NotApplicable() Status { return Status{State: StateNotApplicable} }

func (s Status) IsFree() bool     { return s.State == StateFree }
func (s Status) IsReserved() bool { return s.State == StateReserved }

// Slot は座席マップ上の1スロット
type Slot struct {
	Index  int
	Code   string // 位置コード（例: "12D", "10X"）
	Kind   Kind
	Status Status
}

// IsBookable は予約可能な種別かを返す
func (s *Slot) IsBookable() bool {
	return s.Kind == KindBookable
}

// IsAvailable は予約可能かつ空席かを返す
func (s *Slot) IsAvailable() bool {
	return s.Kind == KindBookable && s.Status.IsFree()
}

// DisplayCode は表示用のコードを返す
// 通路は "X"、物置は "S" で、全スロットで共有される
func (s *Slot) DisplayCode() string {
	switch s.Kind {
	case KindAisle:
		return AisleCode
	case KindStorage:
		return StorageCode
	default:
		return s.Code
	}
}

// reserve は座席を予約状態にする
func (s *Slot) reserve(reference string) error {
	if s.Kind != KindBookable {
		return notBookableError(s)
	}
	if s.Status.IsReserved() {
		return ErrSeatAlreadyReserved
	}
	s.Status = Reserved(reference)
	return nil
}

// release は座席を解放する
func (s *Slot) release() error {
	if s.Kind != KindBookable || !s.Status.IsReserved() {
		return ErrSeatNotReserved
	}
	s.Status = Free()
	return nil
}
