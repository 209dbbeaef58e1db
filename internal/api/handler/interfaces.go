package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
)

// BookingServiceInterface は座席予約サービスのインターフェース
type BookingServiceInterface interface {
	CheckAvailability(ctx context.Context) []string
	ShowStatus() string
	GetSeat(code string) (seat.Slot, error)
	BookSeat(ctx context.Context, input application.BookSeatInput) (*booking.Booking, error)
	FreeSeat(ctx context.Context, code string) error
	SearchBooking(ctx context.Context, term string) (*booking.SearchResult, error)
}
