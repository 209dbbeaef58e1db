package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CheckAvailability(ctx context.Context) []string {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockBookingService) ShowStatus() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBookingService) GetSeat(code string) (seat.Slot, error) {
	args := m.Called(code)
	return args.Get(0).(seat.Slot), args.Error(1)
}

func (m *MockBookingService) BookSeat(ctx context.Context, input application.BookSeatInput) (*booking.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) FreeSeat(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockBookingService) SearchBooking(ctx context.Context, term string) (*booking.SearchResult, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SearchResult), args.Error(1)
}
