package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/redis"
)

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Insert(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) DeleteByReference(ctx context.Context, tx transaction.Tx, reference string) error {
	args := m.Called(ctx, tx, reference)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByReferenceOrPassport(ctx context.Context, term string) (*booking.SearchResult, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SearchResult), args.Error(1)
}

func (m *MockBookingRepository) CountByPassport(ctx context.Context, passport string) (int, error) {
	args := m.Called(ctx, passport)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]*booking.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) Purge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) LockSeat(ctx context.Context, seatCode string) (redisinfra.Lock, error) {
	args := m.Called(ctx, seatCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Key() string {
	return "lock:seat:mock"
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSearchCache implements redisinfra.SearchCacheInterface
type MockSearchCache struct {
	mock.Mock
}

func (m *MockSearchCache) Get(ctx context.Context, term string) (*booking.SearchResult, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SearchResult), args.Error(1)
}

func (m *MockSearchCache) Set(ctx context.Context, term string, result *booking.SearchResult) error {
	args := m.Called(ctx, term, result)
	return args.Error(0)
}

func (m *MockSearchCache) Invalidate(ctx context.Context, terms ...string) error {
	args := m.Called(ctx, terms)
	return args.Error(0)
}

func (m *MockSearchCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
