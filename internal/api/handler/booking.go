package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	SeatCode  string `json:"seat_code" validate:"required,notblank" example:"12D"`
	Passport  string `json:"passport" validate:"required,notblank" example:"P123"`
	FirstName string `json:"first_name" validate:"required,notblank" example:"Jane"`
	LastName  string `json:"last_name" validate:"required,notblank" example:"Doe"`
}

type BookingResponse struct {
	Reference     string    `json:"reference" example:"9174641a"`
	SeatCode      string    `json:"seat_code" example:"12D"`
	Passport      string    `json:"passport" example:"P123"`
	PassengerName string    `json:"passenger_name" example:"Jane Doe"`
	BookedAt      time.Time `json:"booked_at"`
}

type SearchResponse struct {
	PassengerName string   `json:"passenger_name" example:"Jane Doe"`
	SeatCodes     []string `json:"seat_codes" example:"5A,6A"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		Reference: b.Reference, SeatCode: b.SeatCode, Passport: b.Passenger.Passport,
		PassengerName: b.Passenger.FullName(), BookedAt: b.BookedAt,
	}
}

// Create godoc
// @Summary 座席を予約
// @Description 座席を予約し、8桁の参照番号を払い出します
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "座席が存在しない"
// @Failure 409 {object} map[string]string "座席が既に予約済み"
// @Failure 422 {object} map[string]string "通路または物置"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.BookSeat(c.Request().Context(), application.BookSeatInput{
		SeatCode: req.SeatCode, Passport: req.Passport, FirstName: req.FirstName, LastName: req.LastName,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Search godoc
// @Summary 予約を検索
// @Description 参照番号またはパスポート番号で予約を検索します
// @Tags bookings
// @Produce json
// @Param term query string true "参照番号またはパスポート番号"
// @Success 200 {object} SearchResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/search [get]
func (h *BookingHandler) Search(c echo.Context) error {
	result, err := h.service.SearchBooking(c.Request().Context(), c.QueryParam("term"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, SearchResponse{PassengerName: result.PassengerName, SeatCodes: result.SeatCodes})
}
