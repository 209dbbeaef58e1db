package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-seat-booking/internal/config"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/database"
	redisinfra "github.com/sanosuguru/go-flight-seat-booking/internal/infrastructure/redis"
)

// memoryCache はプロセスをまたいで残る Redis の代わりに使うキャッシュ
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*booking.SearchResult
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*booking.SearchResult{}}
}

func (c *memoryCache) Get(ctx context.Context, term string) (*booking.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[term]
	if !ok {
		return nil, redisinfra.ErrCacheMiss
	}
	return r, nil
}

func (c *memoryCache) Set(ctx context.Context, term string, result *booking.SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[term] = result
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, terms ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, term := range terms {
		delete(c.entries, term)
	}
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// setupStoreEnv は SQLite ストアを使った BookingService を作成する
func setupStoreEnv(t *testing.T) (*BookingService, *database.Store) {
	t.Helper()
	store, err := database.Open(config.StoreConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "scenario.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	svc := NewBookingService(store.TxManager(), store.Bookings(), seat.NewMap(), booking.SHA1Allocator{}, nil, nil, nil)
	return svc, store
}

func requireConsistent(t *testing.T, svc *BookingService) {
	t.Helper()
	found, err := svc.VerifyConsistency(context.Background())
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestScenario_BookAndSearch(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()

	// 1. 5A を予約
	first, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: "5A", Passport: "P123", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Len(t, first.Reference, booking.ReferenceLength)

	result, err := svc.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.PassengerName)
	assert.Equal(t, []string{"5A"}, result.SeatCodes)

	// 2. 同じ乗客が 6A を予約すると連番 1 が使われる
	second, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: "6A", Passport: "P123", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, booking.SHA1Allocator{}.Allocate(booking.NewPassenger("P123", "Jane", "Doe"), 1), second.Reference)

	result, err = svc.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.PassengerName)
	assert.Equal(t, []string{"5A", "6A"}, result.SeatCodes)

	byRef, err := svc.SearchBooking(ctx, second.Reference)
	require.NoError(t, err)
	assert.Equal(t, []string{"6A"}, byRef.SeatCodes)

	requireConsistent(t, svc)
}

func TestScenario_NonBookableSeats(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()

	for i := 1; i <= seat.SeatsPerSection; i++ {
		code := fmt.Sprintf("%dX", i)
		_, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: code, Passport: "P1", FirstName: "A", LastName: "B"})
		assert.ErrorIs(t, err, seat.ErrSeatNotBookable, code)
	}
	for _, code := range []string{"77D", "78D", "77E", "78E", "77F", "78F"} {
		_, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: code, Passport: "P1", FirstName: "A", LastName: "B"})
		assert.ErrorIs(t, err, seat.ErrSeatNotBookable, code)
	}

	assert.Len(t, svc.CheckAvailability(ctx), 474)
	requireConsistent(t, svc)
}

func TestScenario_BookThenFree(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()
	before := svc.CheckAvailability(ctx)

	_, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: "1A", Passport: "P777", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.NotContains(t, svc.CheckAvailability(ctx), "1A")

	require.NoError(t, svc.FreeSeat(ctx, "1A"))

	_, err = svc.SearchBooking(ctx, "P777")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	assert.Equal(t, before, svc.CheckAvailability(ctx))

	t.Run("二重解放は ErrSeatNotReserved", func(t *testing.T) {
		assert.ErrorIs(t, svc.FreeSeat(ctx, "1A"), seat.ErrSeatNotReserved)
	})

	t.Run("二重予約は ErrSeatAlreadyReserved", func(t *testing.T) {
		_, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: "2A", Passport: "P1", FirstName: "A", LastName: "B"})
		require.NoError(t, err)
		_, err = svc.BookSeat(ctx, BookSeatInput{SeatCode: "2A", Passport: "P2", FirstName: "C", LastName: "D"})
		assert.ErrorIs(t, err, seat.ErrSeatAlreadyReserved)
	})

	requireConsistent(t, svc)
}

func TestScenario_ReferenceCollisionAfterFree(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()
	p := BookSeatInput{Passport: "P123", FirstName: "Jane", LastName: "Doe"}

	p.SeatCode = "5A"
	first, err := svc.BookSeat(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "9174641a", first.Reference)

	p.SeatCode = "6A"
	second, err := svc.BookSeat(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "fdd767ca", second.Reference)

	// 連番 0 の予約を解放すると、次の予約は連番 1 から始まり fdd767ca と衝突する
	require.NoError(t, svc.FreeSeat(ctx, "5A"))

	p.SeatCode = "7A"
	third, err := svc.BookSeat(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "1bfe68f8", third.Reference)

	result, err := svc.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	assert.Equal(t, []string{"6A", "7A"}, result.SeatCodes)
	requireConsistent(t, svc)
}

func TestScenario_ConcurrentSameSeat(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BookSeat(ctx, BookSeatInput{
				SeatCode: "30B", Passport: fmt.Sprintf("P%d", i), FirstName: "F", LastName: "L",
			})
		}(i)
	}
	wg.Wait()

	var success int
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, seat.ErrSeatAlreadyReserved)
	}
	assert.Equal(t, 1, success)
	requireConsistent(t, svc)
}

func TestScenario_RandomOperationsKeepInvariant(t *testing.T) {
	svc, _ := setupStoreEnv(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	codes := []string{"1A", "2A", "3A", "80C", "1D", "76D", "77D", "10X", "79F", "99Z"}
	passengers := []BookSeatInput{
		{Passport: "P1", FirstName: "Ann", LastName: "Lee"},
		{Passport: "P2", FirstName: "Bob", LastName: "Kim"},
		{Passport: "P3", FirstName: "Cy", LastName: "Ng"},
	}
	allowed := []error{
		seat.ErrSeatNotFound, seat.ErrSeatNotBookable, seat.ErrSeatAlreadyReserved, seat.ErrSeatNotReserved,
		booking.ErrDuplicateReference,
	}

	for step := 0; step < 200; step++ {
		code := codes[rng.Intn(len(codes))]
		var err error
		if rng.Intn(2) == 0 {
			in := passengers[rng.Intn(len(passengers))]
			in.SeatCode = code
			_, err = svc.BookSeat(ctx, in)
		} else {
			err = svc.FreeSeat(ctx, code)
		}
		if err != nil {
			assert.True(t, slices.ContainsFunc(allowed, func(target error) bool { return errors.Is(err, target) }),
				"step %d: 想定外のエラー: %v", step, err)
		}

		requireConsistent(t, svc)
		reserved := 0
		for range svc.seats.Reservations() {
			reserved++
		}
		require.Equal(t, 474, reserved+len(svc.CheckAvailability(ctx)), "step %d", step)
	}
}

func TestScenario_RestoreAfterRestart(t *testing.T) {
	svc, store := setupStoreEnv(t)
	ctx := context.Background()

	_, err := svc.BookSeat(ctx, BookSeatInput{SeatCode: "5A", Passport: "P123", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	_, err = svc.BookSeat(ctx, BookSeatInput{SeatCode: "40F", Passport: "Q9", FirstName: "Li", LastName: "Wu"})
	require.NoError(t, err)

	restarted := NewBookingService(store.TxManager(), store.Bookings(), seat.NewMap(), booking.SHA1Allocator{}, nil, nil, nil)

	t.Run("復元前は不整合として検出される", func(t *testing.T) {
		found, err := restarted.VerifyConsistency(ctx)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		for _, d := range found {
			assert.Empty(t, d.MapReference)
			assert.NotEmpty(t, d.StoreReference)
		}
	})

	result, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Empty(t, result.Rejected)

	requireConsistent(t, restarted)
	assert.NotContains(t, restarted.CheckAvailability(ctx), "5A")
	assert.NotContains(t, restarted.CheckAvailability(ctx), "40F")
	require.NoError(t, restarted.FreeSeat(ctx, "40F"))
}

func TestScenario_EphemeralSessionsShareCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	dir := t.TempDir()

	openSession := func(name string) (*BookingService, *database.Store) {
		store, err := database.Open(config.StoreConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(dir, name),
			Ephemeral:  true,
		})
		require.NoError(t, err)
		svc := NewBookingService(store.TxManager(), store.Bookings(), seat.NewMap(), booking.SHA1Allocator{}, nil, cache, nil)
		_, err = svc.Restore(ctx)
		require.NoError(t, err)
		return svc, store
	}

	first, firstStore := openSession("first.db")
	_, err := first.BookSeat(ctx, BookSeatInput{SeatCode: "5A", Passport: "P123", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	result, err := first.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	require.Equal(t, []string{"5A"}, result.SeatCodes)
	require.NoError(t, firstStore.Close(ctx))

	second, secondStore := openSession("second.db")
	t.Cleanup(func() { secondStore.Close(ctx) })

	assert.Contains(t, second.CheckAvailability(ctx), "5A")
	_, err = second.SearchBooking(ctx, "P123")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	_, err = second.SearchBooking(ctx, "9174641a")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestScenario_BookDuringSearchDoesNotLeaveStaleCache(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	cache := newMemoryCache()
	svc := NewBookingService(deps.txManager, deps.repo, deps.seats, booking.SHA1Allocator{}, nil, cache, nil)
	deps.reserve(t, "5A", "9174641a")

	deps.repo.On("CountByPassport", ctx, "P123").Return(1, nil)
	deps.expectCommit()
	deps.repo.On("Insert", ctx, deps.tx, mock.Anything).Return(nil)

	booked := make(chan struct{})
	var bookErr error
	deps.repo.On("FindByReferenceOrPassport", ctx, "P123").
		Return(&booking.SearchResult{PassengerName: "Jane Doe", SeatCodes: []string{"5A"}}, nil).
		Once().
		Run(func(mock.Arguments) {
			go func() {
				defer close(booked)
				_, bookErr = svc.BookSeat(ctx, BookSeatInput{SeatCode: "6A", Passport: "P123", FirstName: "Jane", LastName: "Doe"})
			}()
			select {
			case <-booked:
				t.Error("検索がストアを読んでいる間に予約が完了した")
			case <-time.After(50 * time.Millisecond):
			}
		})
	deps.repo.On("FindByReferenceOrPassport", ctx, "P123").
		Return(&booking.SearchResult{PassengerName: "Jane Doe", SeatCodes: []string{"5A", "6A"}}, nil).
		Once()

	first, err := svc.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	assert.Equal(t, []string{"5A"}, first.SeatCodes)

	<-booked
	require.NoError(t, bookErr)

	second, err := svc.SearchBooking(ctx, "P123")
	require.NoError(t, err)
	assert.Equal(t, []string{"5A", "6A"}, second.SeatCodes)
	deps.repo.AssertExpectations(t)
}
