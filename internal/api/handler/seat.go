package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
)

type SeatHandler struct {
	service BookingServiceInterface
}

func NewSeatHandler(s BookingServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type AvailabilityResponse struct {
	Seats   []string `json:"seats" example:"1A,2A"`
	Count   int      `json:"count" example:"474"`
	Message string   `json:"message" example:"空席: 1A, 2A"`
}

type SeatResponse struct {
	Code      string `json:"code" example:"12D"`
	Kind      string `json:"kind" example:"bookable"`
	Status    string `json:"status" example:"reserved"`
	Reference string `json:"reference,omitempty" example:"9174641a"`
	Available bool   `json:"available"`
}

func toSeatResponse(s seat.Slot) SeatResponse {
	return SeatResponse{
		Code: s.Code, Kind: s.Kind.String(), Status: s.Status.State.String(),
		Reference: s.Status.Reference, Available: s.IsAvailable(),
	}
}

// GetAvailable godoc
// @Summary 空席一覧を取得
// @Description 予約可能な空席をマップ順で返します
// @Tags seats
// @Produce json
// @Success 200 {object} AvailabilityResponse
// @Router /seats/available [get]
func (h *SeatHandler) GetAvailable(c echo.Context) error {
	codes := h.service.CheckAvailability(c.Request().Context())
	if codes == nil {
		codes = []string{}
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		Seats: codes, Count: len(codes), Message: application.FormatAvailability(codes),
	})
}

// GetStatus godoc
// @Summary 座席マップを表示
// @Description 全スロットの状態を1行10スロットのテキストで返します
// @Tags seats
// @Produce plain
// @Success 200 {string} string
// @Router /seats/status [get]
func (h *SeatHandler) GetStatus(c echo.Context) error {
	return c.String(http.StatusOK, h.service.ShowStatus())
}

// GetByCode godoc
// @Summary 座席を取得
// @Description 座席コードの種別と状態を返します（通路・物置の位置コードも可）
// @Tags seats
// @Produce json
// @Param code path string true "座席コード"
// @Success 200 {object} SeatResponse
// @Failure 404 {object} map[string]string
// @Router /seats/{code} [get]
func (h *SeatHandler) GetByCode(c echo.Context) error {
	s, err := h.service.GetSeat(strings.TrimSpace(c.Param("code")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toSeatResponse(s))
}

// Free godoc
// @Summary 座席を解放
// @Description 予約済みの座席を解放し、予約を削除します
// @Tags seats
// @Param code path string true "座席コード"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が予約されていない"
// @Router /seats/{code}/booking [delete]
func (h *SeatHandler) Free(c echo.Context) error {
	if err := h.service.FreeSeat(c.Request().Context(), strings.TrimSpace(c.Param("code"))); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
