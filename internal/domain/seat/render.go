package seat

import "strings"

const statusFreeMarker = "F"

// Render は座席マップ全体の表示用テキストを返す
// 80 席ごとに改行し、通路ブロックの前後には空行を入れる
func (m *Map) Render() string {
	var b strings.Builder
	for i := range m.slots {
		s := &m.slots[i]
		if s.Kind != KindBookable {
			b.WriteString("[   " + s.DisplayCode() + "   ]  ")
		} else {
			b.WriteString("[" + s.Code + " : " + statusMarker(s.Status) + "]  ")
		}
		if (i+1)%SeatsPerSection == 0 {
			b.WriteString("\n")
			if i+1 == aisleStart || i+1 == aisleEnd {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// statusMarker は空席なら "F"、予約済みなら参照番号を返す
func statusMarker(st Status) string {
	if st.IsReserved() {
		return st.Reference
	}
	return statusFreeMarker
}
